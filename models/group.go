package models

import "time"

// Group 群组模型
type Group struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatorID uint      `gorm:"index;not null" json:"creatorId"`
	AvatarURL string    `gorm:"column:avatar" json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}
