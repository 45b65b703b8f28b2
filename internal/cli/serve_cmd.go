package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjgarrid/genaigo/internal/api"
	"github.com/jjgarrid/genaigo/internal/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the API server with the scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and background scheduler",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer(db, cfg)
	},
}

// RunServer starts the scheduler and the HTTP API, blocking until a
// shutdown signal arrives
func RunServer(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config
	comps := buildComponents()

	router := api.SetupRouter(api.Deps{
		Fetcher:     comps.fetcher,
		Processor:   comps.processor,
		Scheduler:   comps.scheduler,
		Messages:    comps.messages,
		LogService:  comps.logService,
		CORSOrigins: cfg.CORSOrigins,
	})

	comps.scheduler.Start()

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Printf("Starting genaigo server on port %s", cfg.APIPort)
		log.Printf("Data directory: %s", cfg.DataDir)
		log.Printf("Database path: %s", cfg.DatabasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down")
	comps.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
