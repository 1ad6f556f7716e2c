package services

import (
	"encoding/json"

	"webchat/logger"
)

// Call signaling: the hub only relays session descriptions and ICE
// candidates between two paired connections, it never touches media.
// A pairing is symmetric; tearing down one side tears down both.

type callAnsweredPayload struct {
	Answer json.RawMessage `json:"answer"`
}

type iceRelayPayload struct {
	Candidate json.RawMessage `json:"candidate"`
}

// callOffer resolves the target user to a live connection, records the
// pairing and relays the offer. An offline target is dropped silently; the
// caller sees no state change.
func (h *Hub) callOffer(c *Client, p CallOfferPayload) {
	h.mu.Lock()
	var target *Client
	if connID, ok := h.users[p.To]; ok {
		target = h.clients[connID]
	}
	if target == nil {
		h.mu.Unlock()
		logger.Infof("call offer from %s to user %d dropped: target offline", c.ID, p.To)
		return
	}
	h.callPeers[c.ID] = target.ID
	h.callPeers[target.ID] = c.ID
	h.mu.Unlock()

	target.enqueue(encodeEvent(EvIncomingCall, IncomingCallPayload{
		From:         c.ID,
		FromUsername: p.FromUsername,
		Offer:        p.Offer,
	}))
}

// callAnswer relays the callee's answer back to the caller connection.
func (h *Hub) callAnswer(c *Client, p CallAnswerPayload) {
	if target := h.clientByID(p.To); target != nil {
		target.enqueue(encodeEvent(EvCallAnswered, callAnsweredPayload{Answer: p.Answer}))
	}
}

// relayIceCandidate forwards an ICE candidate verbatim; it carries no state.
func (h *Hub) relayIceCandidate(c *Client, p IceCandidatePayload) {
	if target := h.clientByID(p.To); target != nil {
		target.enqueue(encodeEvent(EvIceCandidate, iceRelayPayload{Candidate: p.Candidate}))
	}
}

// endCall notifies the peer and removes the pairing for both sides.
func (h *Hub) endCall(c *Client, p EndCallPayload) {
	h.mu.Lock()
	target := h.clients[p.To]
	delete(h.callPeers, c.ID)
	delete(h.callPeers, p.To)
	h.mu.Unlock()

	if target != nil {
		target.enqueue(encodeEvent(EvCallEnded, nil))
	}
}
