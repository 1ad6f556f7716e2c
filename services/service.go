package services

import (
	"context"

	"webchat/models"
)

// UserDirectory is the external source of account data the hub consumes.
// The hub never mutates it; failures degrade features (auto-join, history
// enrichment) instead of crashing a connection.
type UserDirectory interface {
	// FriendIDs returns the ids of every user with an accepted friendship
	// involving userID.
	FriendIDs(ctx context.Context, userID int) ([]int, error)
	// GroupIDs returns the ids of every group userID belongs to.
	GroupIDs(ctx context.Context, userID int) ([]int, error)
	// UsersByID resolves ids to their current public profile.
	UsersByID(ctx context.Context, ids []int) (map[int]models.PublicUser, error)
}

// MessageStore is the external append/query service for messages. Append
// failures are absorbed by the fan-out engine's degraded mode.
type MessageStore interface {
	// Append persists m, assigns m.ID, and returns it.
	Append(ctx context.Context, m *models.Message) (string, error)
	// Recent returns up to limit messages of a conversation, oldest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	// MarkRead adds userID to the read-by set of every message in the
	// conversation that does not contain it yet. Idempotent.
	MarkRead(ctx context.Context, conversationID string, userID int) error
}
