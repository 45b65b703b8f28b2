package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/processor"
)

// SettingsHandler handles processing settings requests
type SettingsHandler struct {
	processor *processor.Processor
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(p *processor.Processor) *SettingsHandler {
	return &SettingsHandler{processor: p}
}

// GetSettings returns the current processing settings
// GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.processor.GetSettings(),
	})
}

// UpdateSettings applies a partial settings update. A body carrying no
// recognized fields is rejected.
// PUT /api/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch processor.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "No recognized settings fields in request",
			},
		})
		return
	}

	settings, err := h.processor.UpdateSettings(patch)
	if err != nil {
		status := http.StatusInternalServerError
		code := "INTERNAL_ERROR"
		if errors.Is(err, processor.ErrValidation) {
			status = http.StatusBadRequest
			code = "VALIDATION_ERROR"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
}
