package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/database/models"
	"github.com/jjgarrid/genaigo/internal/processor"
	"github.com/jjgarrid/genaigo/internal/services"
	"github.com/jjgarrid/genaigo/internal/store"
)

// AnalysisHandler handles analysis runs, reports and maintenance
type AnalysisHandler struct {
	processor  *processor.Processor
	logService *services.LogService
}

// NewAnalysisHandler creates a new AnalysisHandler instance
func NewAnalysisHandler(p *processor.Processor, logService *services.LogService) *AnalysisHandler {
	return &AnalysisHandler{
		processor:  p,
		logService: logService,
	}
}

// RunRequest optionally narrows an analysis run to explicit message ids
type RunRequest struct {
	IDs []string `json:"ids"`
}

// Run executes an analysis run synchronously. With ids in the body only
// those messages are processed; otherwise everything unanalyzed is.
// POST /api/analysis/run
func (h *AnalysisHandler) Run(c *gin.Context) {
	// An empty body means a full run
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
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

	if len(req.IDs) > 0 {
		result, err := h.processor.ProcessSpecific(c.Request.Context(), req.IDs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
		return
	}

	result := h.processor.ProcessUnanalyzed(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// RunAsync starts an analysis run in the background and returns immediately
// POST /api/analysis/run-async
func (h *AnalysisHandler) RunAsync(c *gin.Context) {
	go func() {
		// Detached from the request lifetime on purpose
		result := h.processor.ProcessUnanalyzed(context.Background())
		h.logService.LogInfo(models.LogModuleAPI, "run_async", "Background analysis run finished", result)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    gin.H{"status": "started"},
	})
}

// GetStats returns analysis coverage statistics
// GET /api/analysis/stats
func (h *AnalysisHandler) GetStats(c *gin.Context) {
	stats, err := h.processor.GetAnalysisStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to compute analysis statistics",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// GetReport returns the stored analysis report for one message
// GET /api/analysis/:id
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	id := c.Param("id")

	report, err := h.processor.GetReport(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "No analysis found for this message",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to load analysis report",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

// CleanupDuplicates removes redundant analysis rows
// POST /api/maintenance/cleanup-duplicates
func (h *AnalysisHandler) CleanupDuplicates(c *gin.Context) {
	result, err := h.processor.CleanupDuplicates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Duplicate cleanup failed",
			},
			"data": result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ReprocessFailed re-runs analysis for failed records
// POST /api/maintenance/reprocess-failed
func (h *AnalysisHandler) ReprocessFailed(c *gin.Context) {
	result, err := h.processor.ReprocessFailed(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Reprocessing failed",
			},
			"data": result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
