// Package store persists chat messages in MongoDB behind the
// services.MessageStore interface. The store is allowed to be down: callers
// get an error and decide how to degrade.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"webchat/logger"
	"webchat/models"
)

// ErrUnavailable is returned by every operation when the Mongo connection
// never came up.
var ErrUnavailable = errors.New("message store unavailable")

type Store struct {
	coll *mongo.Collection
}

// New wraps the messages collection. Passing nil yields a store whose every
// call fails with ErrUnavailable, which the fan-out engine absorbs.
func New(db *mongo.Database) *Store {
	if db == nil {
		return &Store{}
	}
	coll := db.Collection("messages")
	ensureIndexes(coll)
	return &Store{coll: coll}
}

func ensureIndexes(coll *mongo.Collection) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "senderId", Value: 1}}},
	})
	if err != nil {
		logger.Warnf("create message indexes: %v", err)
	}
}

// Append inserts the message and assigns its id.
func (s *Store) Append(ctx context.Context, m *models.Message) (string, error) {
	if s.coll == nil {
		return "", ErrUnavailable
	}
	m.ID = primitive.NewObjectID().Hex()
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		m.ID = ""
		return "", errors.Wrap(err, "insert message")
	}
	return m.ID, nil
}

// Recent returns up to limit of the newest messages in a conversation,
// reordered oldest first for display.
func (s *Store) Recent(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if s.coll == nil {
		return nil, ErrUnavailable
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.coll.Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find messages")
	}
	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead adds userID to the read-by set of every message in the
// conversation that does not already contain it. $addToSet makes repeated
// calls a no-op.
func (s *Store) MarkRead(ctx context.Context, conversationID string, userID int) error {
	if s.coll == nil {
		return ErrUnavailable
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "readBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	return errors.Wrap(err, "mark messages read")
}
