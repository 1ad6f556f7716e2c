package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"webchat/config"
	"webchat/logger"
	"webchat/middlewares"
	"webchat/models"
	"webchat/services"
)

// FriendsController owns the friendship CRUD. Mutations push realtime
// notifications to the affected user's personal room through the hub.
type FriendsController struct {
	Hub *services.Hub
}

func NewFriendsController(hub *services.Hub) *FriendsController {
	return &FriendsController{Hub: hub}
}

// Search finds users by username or email fragment, excluding the caller.
func (fc *FriendsController) Search(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	query := c.Query("query")
	if len(query) < 2 {
		c.JSON(http.StatusOK, []models.PublicUser{})
		return
	}

	var users []models.User
	err := config.DB.
		Where("(username LIKE ? OR email LIKE ?) AND id <> ?", "%"+query+"%", "%"+query+"%", user.ID).
		Limit(10).
		Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	results := make([]models.PublicUser, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public())
	}
	c.JSON(http.StatusOK, results)
}

// SendRequest creates a pending friendship and notifies the receiver.
func (fc *FriendsController) SendRequest(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	var input struct {
		ReceiverID uint `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receiver id required"})
		return
	}
	if input.ReceiverID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself"})
		return
	}

	var existing models.Friendship
	err := config.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user.ID, input.ReceiverID, input.ReceiverID, user.ID).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A request already exists"})
		return
	}

	friendship := models.Friendship{
		SenderID:   user.ID,
		ReceiverID: input.ReceiverID,
		Status:     models.FriendshipPending,
	}
	if err := config.DB.Create(&friendship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	fc.Hub.EmitToUser(int(input.ReceiverID), "new_friend_request", gin.H{
		"sender": gin.H{"id": user.ID, "username": user.Username},
	})
	c.JSON(http.StatusCreated, friendship)
}

// ListRequests returns the caller's pending incoming requests.
func (fc *FriendsController) ListRequests(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	var requests []models.Friendship
	err := config.DB.
		Preload("Sender").
		Where("receiver_id = ? AND status = ?", user.ID, models.FriendshipPending).
		Find(&requests).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

// Accept marks a pending request accepted and notifies the sender.
func (fc *FriendsController) Accept(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var friendship models.Friendship
	if err := config.DB.First(&friendship, id).Error; err != nil || friendship.ReceiverID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	friendship.Status = models.FriendshipAccepted
	if err := config.DB.Save(&friendship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	fc.Hub.EmitToUser(int(friendship.SenderID), "friend_request_accepted", gin.H{
		"user": gin.H{"id": user.ID, "username": user.Username},
	})
	c.JSON(http.StatusOK, friendship)
}

// DeleteRequest declines or withdraws a request; either side may do it.
func (fc *FriendsController) DeleteRequest(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var friendship models.Friendship
	if err := config.DB.First(&friendship, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	if friendship.SenderID != user.ID && friendship.ReceiverID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized"})
		return
	}

	if err := config.DB.Delete(&friendship).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request deleted"})
}

// List returns every accepted friendship of the caller with both profiles.
func (fc *FriendsController) List(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	var friendships []models.Friendship
	err := config.DB.
		Preload("Sender").
		Preload("Receiver").
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?", user.ID, user.ID, models.FriendshipAccepted).
		Find(&friendships).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, friendships)
}

// Remove deletes the friendship in both directions and notifies the friend.
func (fc *FriendsController) Remove(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	friendID, err := strconv.Atoi(c.Param("friendId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	err = config.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			user.ID, friendID, friendID, user.ID).
		Delete(&models.Friendship{}).Error
	if err != nil {
		logger.Errorf("remove friend %d of user %d: %v", friendID, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	fc.Hub.EmitToUser(friendID, "friend_removed", gin.H{"userId": user.ID})
	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}
