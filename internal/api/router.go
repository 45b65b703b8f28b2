// Package api exposes the pipeline over HTTP.
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/api/handlers"
	"github.com/jjgarrid/genaigo/internal/fetcher"
	"github.com/jjgarrid/genaigo/internal/processor"
	"github.com/jjgarrid/genaigo/internal/scheduler"
	"github.com/jjgarrid/genaigo/internal/services"
	"github.com/jjgarrid/genaigo/internal/store"
)

// Deps carries the constructed components the router serves
type Deps struct {
	Fetcher     *fetcher.Fetcher
	Processor   *processor.Processor
	Scheduler   *scheduler.Scheduler
	Messages    *store.MessageStore
	LogService  *services.LogService
	CORSOrigins string
}

// SetupRouter initializes and returns the Gin router with all routes configured
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.Default()

	origins := []string{"*"}
	if deps.CORSOrigins != "" && deps.CORSOrigins != "*" {
		origins = strings.Split(deps.CORSOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	fetchHandler := handlers.NewFetchHandler(deps.Fetcher, deps.LogService)
	messageHandler := handlers.NewMessageHandler(deps.Messages)
	analysisHandler := handlers.NewAnalysisHandler(deps.Processor, deps.LogService)
	settingsHandler := handlers.NewSettingsHandler(deps.Processor)
	schedulerHandler := handlers.NewSchedulerHandler(deps.Scheduler)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/fetch", fetchHandler.Fetch)

		messages := api.Group("/messages")
		{
			messages.GET("", messageHandler.ListMessages)
			messages.GET("/stats", messageHandler.GetStats)
		}

		analysis := api.Group("/analysis")
		{
			analysis.POST("/run", analysisHandler.Run)
			analysis.POST("/run-async", analysisHandler.RunAsync)
			analysis.GET("/stats", analysisHandler.GetStats)
			analysis.GET("/:id", analysisHandler.GetReport)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
		}

		maintenance := api.Group("/maintenance")
		{
			maintenance.POST("/cleanup-duplicates", analysisHandler.CleanupDuplicates)
			maintenance.POST("/reprocess-failed", analysisHandler.ReprocessFailed)
		}

		sched := api.Group("/scheduler")
		{
			sched.GET("", schedulerHandler.GetStatus)
			sched.POST("/start", schedulerHandler.Start)
			sched.POST("/stop", schedulerHandler.Stop)
			sched.POST("/run-now", schedulerHandler.RunNow)
			sched.GET("/logs", schedulerHandler.GetLogs)
		}
	}

	return router
}
