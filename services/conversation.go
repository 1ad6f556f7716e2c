package services

import (
	"fmt"
	"strings"
)

// Conversation ids are derived, never stored: any party holding both user ids
// (or a group id) reconstructs the same key without a lookup.

// PrivateConversationID builds the canonical key for a 1:1 conversation.
// The smaller id always comes first so both participants agree on the key.
func PrivateConversationID(userA, userB int) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("private_%d_%d", userA, userB)
}

// GroupConversationID builds the key for a group conversation.
func GroupConversationID(groupID int) string {
	return fmt.Sprintf("group_%d", groupID)
}

// ConversationType derives "private" or "group" from the key prefix.
func ConversationType(conversationID string) string {
	if strings.HasPrefix(conversationID, "private_") {
		return "private"
	}
	return "group"
}
