package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RespondSuccess wraps a payload in the standard success envelope.
func RespondSuccess(c *gin.Context, data interface{}, meta interface{}) {
	resp := gin.H{"code": 200, "message": "success", "data": data}
	if meta != nil {
		resp["meta"] = meta
	}
	c.JSON(http.StatusOK, resp)
}

// RespondError sends a plain error body with the given status.
func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
