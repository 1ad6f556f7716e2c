package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"webchat/config"
	"webchat/middlewares"
	"webchat/models"
)

// CreateGroup creates a group with the caller as creator plus any listed
// members.
func CreateGroup(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	var input struct {
		Name      string `json:"name" binding:"required"`
		MemberIDs []uint `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group name required"})
		return
	}

	group := models.Group{
		Name:      strings.TrimSpace(input.Name),
		CreatorID: user.ID,
	}
	members := []models.GroupMember{{UserID: user.ID}}
	for _, id := range input.MemberIDs {
		if id != user.ID {
			members = append(members, models.GroupMember{UserID: id})
		}
	}
	group.Members = members

	if err := config.DB.Create(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	config.DB.Preload("Members.User").First(&group, group.ID)
	c.JSON(http.StatusCreated, group)
}

// ListGroups returns every group the caller belongs to, members included.
func ListGroups(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	var groups []models.Group
	err := config.DB.
		Preload("Members.User").
		Joins("JOIN group_members ON group_members.group_id = groups.id AND group_members.user_id = ?", user.ID).
		Find(&groups).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// AddGroupMember adds a user to a group the caller is a member of.
func AddGroupMember(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	groupID, err := strconv.Atoi(c.Param("groupId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group id"})
		return
	}
	var input struct {
		UserID uint `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User id required"})
		return
	}

	if !isGroupMember(uint(groupID), user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
		return
	}
	if isGroupMember(uint(groupID), input.UserID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already a member"})
		return
	}

	member := models.GroupMember{GroupID: uint(groupID), UserID: input.UserID}
	if err := config.DB.Create(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, member)
}

// RemoveGroupMember lets the group creator remove a member.
func RemoveGroupMember(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	groupID, err1 := strconv.Atoi(c.Param("groupId"))
	memberID, err2 := strconv.Atoi(c.Param("userId"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var group models.Group
	if err := config.DB.First(&group, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	if group.CreatorID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator can remove members"})
		return
	}

	err := config.DB.
		Where("group_id = ? AND user_id = ?", groupID, memberID).
		Delete(&models.GroupMember{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// LeaveGroup removes the caller from a group.
func LeaveGroup(c *gin.Context) {
	user, _ := middlewares.CurrentUser(c)
	groupID, err := strconv.Atoi(c.Param("groupId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group id"})
		return
	}

	err = config.DB.
		Where("group_id = ? AND user_id = ?", groupID, user.ID).
		Delete(&models.GroupMember{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left group"})
}

func isGroupMember(groupID, userID uint) bool {
	var count int64
	config.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count)
	return count > 0
}
