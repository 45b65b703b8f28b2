// Package cli wires the pipeline components and exposes them as commands.
package cli

import (
	"os"

	"github.com/jjgarrid/genaigo/internal/analysis"
	"github.com/jjgarrid/genaigo/internal/config"
	"github.com/jjgarrid/genaigo/internal/fetcher"
	"github.com/jjgarrid/genaigo/internal/joblog"
	"github.com/jjgarrid/genaigo/internal/processor"
	"github.com/jjgarrid/genaigo/internal/scheduler"
	"github.com/jjgarrid/genaigo/internal/services"
	"github.com/jjgarrid/genaigo/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db  *gorm.DB
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "genaigo",
	Short: "Mailbox analysis pipeline",
	Long: `genaigo polls a mailbox, stores new messages and runs them through a
text-analysis backend to extract people, locations and events.

Examples:
  genaigo serve            # run the API server and scheduler
  genaigo fetch            # run one fetch cycle and exit
  genaigo analyze          # analyze everything unanalyzed and exit
  genaigo analyze --id X   # analyze specific messages`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// components holds the wired pipeline, built once per command invocation
type components struct {
	logService *services.LogService
	messages   *store.MessageStore
	analyses   *store.AnalysisStore
	fetcher    *fetcher.Fetcher
	processor  *processor.Processor
	scheduler  *scheduler.Scheduler
}

// buildComponents constructs the full pipeline from db and cfg
func buildComponents() *components {
	logService := services.NewLogServiceWithLevel(db, cfg.LogLevel)
	messages := store.NewMessageStore(db)
	analyses := store.NewAnalysisStore(db)

	source := fetcher.NewIMAPSource(fetcher.IMAPConfig{
		Host:     cfg.IMAPHost,
		Port:     cfg.IMAPPort,
		Username: cfg.IMAPUsername,
		Password: cfg.IMAPPassword,
		UseSSL:   cfg.IMAPUseSSL,
	})
	f := fetcher.New(source, messages, logService, fetcher.Options{
		Enabled:       cfg.FetchEnabled,
		LookbackHours: cfg.LookbackHours,
		Whitelist:     cfg.WhitelistEntries(),
	})

	creds := analysis.Credentials{
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		ClaudeAPIKey:   cfg.ClaudeAPIKey,
		DeepSeekAPIKey: cfg.DeepSeekAPIKey,
		OllamaBaseURL:  cfg.OllamaBaseURL,
		OllamaModel:    cfg.OllamaModel,
	}
	processingLog := joblog.Open(cfg.ProcessingLogPath())
	proc := processor.New(messages, analyses, logService, processingLog, creds, cfg.SettingsPath())

	fetchLog := joblog.Open(cfg.FetchLogPath())
	sched := scheduler.New(f, proc, logService, fetchLog, scheduler.Options{
		Schedule:            scheduler.ParseSchedule(cfg.Schedule),
		PollIntervalSeconds: cfg.PollIntervalSeconds,
	})

	return &components{
		logService: logService,
		messages:   messages,
		analyses:   analyses,
		fetcher:    f,
		processor:  proc,
		scheduler:  sched,
	}
}
