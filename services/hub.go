package services

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"webchat/logger"
)

const directoryTimeout = 5 * time.Second

// Hub owns all process-wide realtime state: the connection registry, room
// membership, and call pairings. Every mutation happens under one lock so
// broadcasts always observe a consistent snapshot. It is handed explicitly to
// the event handlers and controllers that need it.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client            // connection id -> client
	users     map[int]string                // user id -> connection id, last registration wins
	rooms     map[string]map[string]*Client // conversation id -> connection id -> client
	callPeers map[string]string             // connection id -> paired connection id

	directory UserDirectory
	store     MessageStore
}

func NewHub(directory UserDirectory, store MessageStore) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		users:     make(map[int]string),
		rooms:     make(map[string]map[string]*Client),
		callPeers: make(map[string]string),
		directory: directory,
		store:     store,
	}
}

// Attach adds a freshly upgraded connection to the registry. The connection
// stays anonymous until it sends user_online.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()
	logger.Infof("connection %s open (%d total)", c.ID, total)
}

// Disconnect tears down everything tied to a connection: an active call,
// room membership, the presence entry, and finally the registry slot.
// Calling it for a connection that never registered is a no-op beyond the
// registry cleanup.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	var callPeer *Client
	if peerID, ok := h.callPeers[c.ID]; ok {
		callPeer = h.clients[peerID]
		delete(h.callPeers, peerID)
		delete(h.callPeers, c.ID)
	}
	for room := range c.rooms {
		if members := h.rooms[room]; members != nil {
			delete(members, c.ID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	userID, username := c.userID, c.username
	if userID != 0 {
		delete(h.users, userID)
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	if callPeer != nil {
		callPeer.enqueue(encodeEvent(EvCallEnded, nil))
	}
	if userID != 0 {
		logger.Infof("user %d (%s) went offline (connection %s)", userID, username, c.ID)
		h.broadcastAll(encodeEvent(EvUserStatusChange, StatusChangePayload{UserID: userID, Status: "offline"}))
	}
	c.close()
}

// registerOnline binds a user identity to the connection, announces presence
// and kicks off room auto-join. Idempotent: a repeated user_online simply
// overwrites the mapping.
func (h *Hub) registerOnline(c *Client, userID int, username string) {
	h.mu.Lock()
	c.userID = userID
	c.username = username
	h.users[userID] = c.ID
	// personal room, used for directed events like friend requests
	h.joinLocked(c, strconv.Itoa(userID))
	h.mu.Unlock()

	logger.Infof("user %d (%s) online on connection %s", userID, username, c.ID)
	h.broadcastAll(encodeEvent(EvUserStatusChange, StatusChangePayload{UserID: userID, Status: "online"}))
	h.autoJoin(c, userID)
}

// autoJoin subscribes the connection to every conversation derivable from
// the user directory. A directory failure yields partial or zero auto-join,
// never a dead connection.
func (h *Hub) autoJoin(c *Client, userID int) {
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()

	friends, err := h.directory.FriendIDs(ctx, userID)
	if err != nil {
		logger.Errorf("auto-join friends of user %d: %v", userID, err)
	} else {
		for _, friendID := range friends {
			h.Join(c, PrivateConversationID(userID, friendID))
		}
	}

	groups, err := h.directory.GroupIDs(ctx, userID)
	if err != nil {
		logger.Errorf("auto-join groups of user %d: %v", userID, err)
	} else {
		for _, groupID := range groups {
			h.Join(c, GroupConversationID(groupID))
		}
	}
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	h.joinLocked(c, room)
	h.mu.Unlock()
}

func (h *Hub) joinLocked(c *Client, room string) {
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	if members := h.rooms[room]; members != nil {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
	h.mu.Unlock()
}

// IsOnline reports whether the user has a live registered connection.
func (h *Hub) IsOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.users[userID]
	return ok
}

// FilterOnline returns the subset of candidates currently online.
func (h *Hub) FilterOnline(candidates []int) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	online := make([]int, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := h.users[id]; ok {
			online = append(online, id)
		}
	}
	return online
}

func (h *Hub) clientByID(connID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[connID]
}

// EmitToUser pushes an event to a user's personal room. Used by the CRUD
// controllers for friend-request notifications; silently does nothing when
// the user is offline.
func (h *Hub) EmitToUser(userID int, event string, data interface{}) {
	h.broadcastRoom(strconv.Itoa(userID), encodeEvent(event, data), nil)
}

// broadcastRoom delivers a frame to every member of a room, optionally
// skipping the sender. At-most-once per member at the instant of the call.
func (h *Hub) broadcastRoom(room string, frame []byte, except *Client) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, member := range h.rooms[room] {
		if member == except {
			continue
		}
		member.enqueue(frame)
	}
}

// broadcastAll delivers a frame to every connection; presence changes are
// global because any friend may be rendered anywhere in the UI.
func (h *Hub) broadcastAll(frame []byte) {
	if frame == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.enqueue(frame)
	}
}

// handleEvent is the single dispatch point for inbound frames. A malformed
// payload is logged and ignored; it must never take the hub down.
func (h *Hub) handleEvent(c *Client, ev Event) {
	switch ev.Event {
	case EvUserOnline:
		var p UserOnlinePayload
		if !decode(c, ev, &p) {
			return
		}
		if p.UserID == 0 {
			logger.Warnf("connection %s: user_online without userId", c.ID)
			return
		}
		h.registerOnline(c, p.UserID, p.Username)

	case EvCheckOnlineStatus:
		var p CheckOnlinePayload
		if !decode(c, ev, &p) {
			return
		}
		c.enqueue(encodeEvent(EvOnlineStatus, OnlineStatusPayload{OnlineIDs: h.FilterOnline(p.UserIDs)}))

	case EvJoinConversation:
		var p ConversationPayload
		if !decode(c, ev, &p) || p.ConversationID == "" {
			return
		}
		h.Join(c, p.ConversationID)

	case EvLeaveConversation:
		var p ConversationPayload
		if !decode(c, ev, &p) || p.ConversationID == "" {
			return
		}
		h.Leave(c, p.ConversationID)

	case EvSendMessage:
		var p SendMessagePayload
		if !decode(c, ev, &p) {
			return
		}
		h.submit(c, p)

	case EvTyping:
		var p TypingPayload
		if !decode(c, ev, &p) {
			return
		}
		h.relayTyping(c, p, EvUserTyping)

	case EvStopTyping:
		var p TypingPayload
		if !decode(c, ev, &p) {
			return
		}
		h.relayTyping(c, p, EvUserStopTyping)

	case EvMarkRead:
		var p MarkReadPayload
		if !decode(c, ev, &p) {
			return
		}
		h.markRead(c, p)

	case EvCallOffer:
		var p CallOfferPayload
		if !decode(c, ev, &p) {
			return
		}
		h.callOffer(c, p)

	case EvCallAnswer:
		var p CallAnswerPayload
		if !decode(c, ev, &p) {
			return
		}
		h.callAnswer(c, p)

	case EvIceCandidate:
		var p IceCandidatePayload
		if !decode(c, ev, &p) {
			return
		}
		h.relayIceCandidate(c, p)

	case EvEndCall:
		var p EndCallPayload
		if !decode(c, ev, &p) {
			return
		}
		h.endCall(c, p)

	default:
		logger.Warnf("connection %s: unknown event %q", c.ID, ev.Event)
	}
}

func decode(c *Client, ev Event, v interface{}) bool {
	if err := json.Unmarshal(ev.Data, v); err != nil {
		logger.Warnf("connection %s: bad %s payload: %v", c.ID, ev.Event, err)
		return false
	}
	return true
}

// relayTyping forwards typing state to everyone else in the conversation.
// Nothing is stored and nothing expires server-side; the receiving client
// clears stale indicators itself.
func (h *Hub) relayTyping(c *Client, p TypingPayload, out string) {
	if p.ConversationID == "" {
		return
	}
	h.broadcastRoom(p.ConversationID, encodeEvent(out, p), c)
}
