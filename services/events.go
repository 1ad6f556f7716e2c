package services

import (
	"encoding/json"

	"webchat/logger"
)

// Event is the wire envelope for both directions: a name plus a raw payload.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server event names.
const (
	EvUserOnline        = "user_online"
	EvCheckOnlineStatus = "check_online_status"
	EvJoinConversation  = "join_conversation"
	EvLeaveConversation = "leave_conversation"
	EvSendMessage       = "send_message"
	EvTyping            = "typing"
	EvStopTyping        = "stop_typing"
	EvMarkRead          = "mark_read"
	EvCallOffer         = "call_offer"
	EvCallAnswer        = "call_answer"
	EvIceCandidate      = "ice_candidate"
	EvEndCall           = "end_call"
)

// Server -> client event names.
const (
	EvReceiveMessage   = "receive_message"
	EvUserStatusChange = "user_status_change"
	EvOnlineStatus     = "online_status"
	EvUserTyping       = "user_typing"
	EvUserStopTyping   = "user_stop_typing"
	EvMessagesRead     = "messages_read"
	EvIncomingCall     = "incoming_call"
	EvCallAnswered     = "call_answered"
	EvCallEnded        = "call_ended"
)

type UserOnlinePayload struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
}

type CheckOnlinePayload struct {
	UserIDs []int `json:"userIds"`
}

type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendMessagePayload struct {
	ConversationID   string `json:"conversationId"`
	ConversationType string `json:"conversationType,omitempty"`
	Username         string `json:"username"`
	SenderID         int    `json:"senderId"`
	Avatar           string `json:"avatar,omitempty"`
	Message          string `json:"message"`
	Type             string `json:"type,omitempty"`
	FileURL          string `json:"fileUrl,omitempty"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	Username       string `json:"username"`
}

type MarkReadPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         int    `json:"userId"`
}

type CallOfferPayload struct {
	To           int             `json:"to"` // target user id
	Offer        json.RawMessage `json:"offer"`
	FromUsername string          `json:"fromUsername"`
}

type CallAnswerPayload struct {
	To     string          `json:"to"` // target connection id
	Answer json.RawMessage `json:"answer"`
}

type IceCandidatePayload struct {
	To        string          `json:"to"` // target connection id
	Candidate json.RawMessage `json:"candidate"`
}

type EndCallPayload struct {
	To string `json:"to"` // target connection id
}

type StatusChangePayload struct {
	UserID int    `json:"userId"`
	Status string `json:"status"` // "online" or "offline"
}

type OnlineStatusPayload struct {
	OnlineIDs []int `json:"onlineIds"`
}

type IncomingCallPayload struct {
	From         string          `json:"from"` // caller connection id
	FromUsername string          `json:"fromUsername"`
	Offer        json.RawMessage `json:"offer"`
}

// encodeEvent marshals an outbound frame. Payloads are plain structs so a
// marshal failure means a programming error; it is logged and dropped.
func encodeEvent(name string, data interface{}) []byte {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			logger.Errorf("encode %s payload: %v", name, err)
			return nil
		}
		raw = b
	}
	b, err := json.Marshal(Event{Event: name, Data: raw})
	if err != nil {
		logger.Errorf("encode %s event: %v", name, err)
		return nil
	}
	return b
}
