package models

import "time"

// GroupMember 群组成员模型
type GroupMember struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID  uint      `gorm:"index:idx_group_user,unique" json:"groupId"`
	UserID   uint      `gorm:"index:idx_group_user,unique" json:"userId"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
