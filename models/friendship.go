package models

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is a directed request row; once Status is accepted it counts as
// a friendship in both directions.
type Friendship struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   uint      `gorm:"index;not null" json:"senderId"`
	ReceiverID uint      `gorm:"index;not null" json:"receiverId"`
	Status     string    `gorm:"type:varchar(10);default:'pending'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`

	Sender   User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}
