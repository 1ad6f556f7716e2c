package services

import (
	"context"
	"strconv"
	"time"

	"webchat/logger"
	"webchat/models"
)

const storeTimeout = 5 * time.Second

// submit validates and timestamps an inbound message, persists it and fans
// it out to everyone joined to the conversation, the sender included.
//
// When the store is down the message still goes out, carrying a synthetic
// timestamp-derived id: delivery is never blocked by a storage outage, at the
// price of the message not surviving a reload. No retry, and the sender is
// not told; they already see their message appear for online recipients.
func (h *Hub) submit(c *Client, p SendMessagePayload) {
	if p.ConversationID == "" {
		logger.Warnf("connection %s: send_message without conversationId", c.ID)
		return
	}
	if len(p.Message) > models.MaxContentLength {
		logger.Warnf("connection %s: message exceeds %d chars, dropped", c.ID, models.MaxContentLength)
		return
	}
	msgType := p.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	if !models.ValidMessageType(msgType) {
		logger.Warnf("connection %s: unknown message type %q, dropped", c.ID, p.Type)
		return
	}
	convType := p.ConversationType
	if convType == "" {
		convType = ConversationType(p.ConversationID)
	}

	msg := &models.Message{
		ConversationID:   p.ConversationID,
		ConversationType: convType,
		SenderID:         p.SenderID,
		Username:         p.Username,
		Avatar:           p.Avatar,
		Content:          p.Message,
		Type:             msgType,
		FileURL:          p.FileURL,
		ReadBy:           []int{p.SenderID},
		Timestamp:        time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := h.store.Append(ctx, msg); err != nil {
		msg.ID = strconv.FormatInt(time.Now().UnixMilli(), 10)
		logger.Errorf("persist message in %s: %v (broadcasting unsaved)", p.ConversationID, err)
	}

	h.broadcastRoom(p.ConversationID, encodeEvent(EvReceiveMessage, msg), nil)
}

// markRead records the reader on every message of the conversation, then
// tells the other members that the conversation was read. The store call is
// an idempotent set union, so repeated mark_read events are harmless. On a
// store failure nothing is broadcast.
func (h *Hub) markRead(c *Client, p MarkReadPayload) {
	if p.ConversationID == "" || p.UserID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := h.store.MarkRead(ctx, p.ConversationID, p.UserID); err != nil {
		logger.Errorf("mark read %s by user %d: %v", p.ConversationID, p.UserID, err)
		return
	}
	h.broadcastRoom(p.ConversationID, encodeEvent(EvMessagesRead, p), c)
}
