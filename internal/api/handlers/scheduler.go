package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/scheduler"
)

// SchedulerHandler exposes scheduler control and inspection
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerHandler creates a new SchedulerHandler instance
func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// GetStatus returns the scheduler state
// GET /api/scheduler
func (h *SchedulerHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.scheduler.GetStatus(),
	})
}

// Start launches the scheduler loop
// POST /api/scheduler/start
func (h *SchedulerHandler) Start(c *gin.Context) {
	h.scheduler.Start()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.scheduler.GetStatus(),
	})
}

// Stop halts the scheduler loop
// POST /api/scheduler/stop
func (h *SchedulerHandler) Stop(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.scheduler.GetStatus(),
	})
}

// RunNow executes the scheduled job immediately
// POST /api/scheduler/run-now
func (h *SchedulerHandler) RunNow(c *gin.Context) {
	h.scheduler.RunNow(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"status": "completed"},
	})
}

// GetLogs returns recent recorded job runs
// GET /api/scheduler/logs?limit=N
func (h *SchedulerHandler) GetLogs(c *gin.Context) {
	limit := 0
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

	entries := h.scheduler.GetJobLogs(limit)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"logs":  entries,
			"count": len(entries),
		},
	})
}
