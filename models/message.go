package models

import "time"

// Message kinds. Anything else is rejected at the fan-out boundary.
const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageFile   = "file"
	MessageSystem = "system"
)

// MaxContentLength caps the message body.
const MaxContentLength = 5000

// Message is the MongoDB document for one chat message. Username and Avatar
// are denormalized at write time; history reads re-enrich them from the user
// directory so renames show up.
type Message struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	ConversationID   string    `bson:"conversationId" json:"conversationId"`
	ConversationType string    `bson:"conversationType" json:"conversationType"`
	SenderID         int       `bson:"senderId" json:"senderId"`
	Username         string    `bson:"username" json:"username"`
	Avatar           string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Content          string    `bson:"content" json:"content"`
	Type             string    `bson:"type" json:"type"`
	FileURL          string    `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	ReadBy           []int     `bson:"readBy" json:"readBy"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`
}

// ValidMessageType reports whether t is one of the fixed kinds.
func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return true
	}
	return false
}
