package models

import (
	"log"

	"webchat/config"
)

// Migrate runs GORM auto-migration for every relational model.
func Migrate() {
	err := config.DB.AutoMigrate(
		&User{},
		&Friendship{},
		&Group{},
		&GroupMember{},
	)
	if err != nil {
		log.Fatalf("Auto migration failed: %v", err)
	}
}
