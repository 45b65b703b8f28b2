package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/fetcher"
	"github.com/jjgarrid/genaigo/internal/services"
)

// FetchHandler handles mailbox fetch requests
type FetchHandler struct {
	fetcher    *fetcher.Fetcher
	logService *services.LogService
}

// NewFetchHandler creates a new FetchHandler instance
func NewFetchHandler(f *fetcher.Fetcher, logService *services.LogService) *FetchHandler {
	return &FetchHandler{
		fetcher:    f,
		logService: logService,
	}
}

// Fetch runs one fetch cycle against the source mailbox
// POST /api/fetch
func (h *FetchHandler) Fetch(c *gin.Context) {
	result, err := h.fetcher.FetchRecent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SOURCE_UNAVAILABLE",
				"message": "Failed to reach the source mailbox",
				"details": err.Error(),
			},
			"data": result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
