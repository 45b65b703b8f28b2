package main

import (
	"log"
	"os"

	"github.com/jjgarrid/genaigo/internal/cli"
	"github.com/jjgarrid/genaigo/internal/config"
	"github.com/jjgarrid/genaigo/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data and config directories exist
	if err := ensureDirs(cfg); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Check if running CLI command
	if len(os.Args) > 1 {
		cli.Execute(db, cfg)
		return
	}

	// No subcommand starts the server directly
	cli.RunServer(db, cfg)
}

// ensureDirs creates the data and config directories if they don't exist
func ensureDirs(cfg *config.Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.ConfigDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
