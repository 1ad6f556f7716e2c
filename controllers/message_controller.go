package controllers

import (
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"webchat/config"
	"webchat/logger"
	"webchat/models"
	"webchat/services"
)

const (
	historyLimit  = 100
	maxUploadSize = 50 << 20 // 50MB
)

// MessageController serves message history and chat file uploads. It talks
// to the message store and the user directory through the same interfaces
// the hub uses.
type MessageController struct {
	Store     services.MessageStore
	Directory services.UserDirectory
}

func NewMessageController(store services.MessageStore, dir services.UserDirectory) *MessageController {
	return &MessageController{Store: store, Directory: dir}
}

// GetMessages returns up to 100 recent messages of a conversation, oldest
// first, with username/avatar refreshed from the directory so renames and
// avatar changes show up in old history.
func (mc *MessageController) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")

	ctx := c.Request.Context()
	messages, err := mc.Store.Recent(ctx, conversationID, historyLimit)
	if err != nil {
		logger.Errorf("load history of %s: %v", conversationID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	senderIDs := make([]int, 0, len(messages))
	seen := make(map[int]bool)
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	users, err := mc.Directory.UsersByID(ctx, senderIDs)
	if err != nil {
		// stale names are better than no history
		logger.Warnf("enrich history of %s: %v", conversationID, err)
	} else {
		for i := range messages {
			if u, ok := users[messages[i].SenderID]; ok {
				messages[i].Username = u.Username
				messages[i].Avatar = u.Avatar
			}
		}
	}

	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// Upload stores one chat attachment (50MB cap) and returns its public URL.
func (mc *MessageController) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 50MB)"})
		return
	}

	dir := filepath.Join(config.App.UploadDir, "messages")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	name := fmt.Sprintf("msg-%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		logger.Errorf("save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      "/uploads/messages/" + name,
		"filename": file.Filename,
		"mimetype": detectMimetype(file),
		"size":     file.Size,
	})
}

func detectMimetype(file *multipart.FileHeader) string {
	if ct := file.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
