package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/store"
)

// MessageHandler handles stored message queries
type MessageHandler struct {
	messages *store.MessageStore
}

// NewMessageHandler creates a new MessageHandler instance
func NewMessageHandler(messages *store.MessageStore) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// ListMessages returns recent stored messages
// GET /api/messages?limit=N
func (h *MessageHandler) ListMessages(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "limit must be a positive integer",
				},
			})
			return
		}
		limit = parsed
	}

	msgs, err := h.messages.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to list messages",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"messages": msgs,
			"count":    len(msgs),
		},
	})
}

// GetStats returns message collection statistics
// GET /api/messages/stats
func (h *MessageHandler) GetStats(c *gin.Context) {
	stats, err := h.messages.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to compute message statistics",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
