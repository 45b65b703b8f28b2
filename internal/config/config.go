package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	DatabasePath string `json:"database_path"`
	APIPort      string `json:"api_port"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	ConfigDir    string `json:"config_dir"` // settings override file lives here
	CORSOrigins  string `json:"cors_origins"`

	// Mailbox (IMAP) source
	IMAPHost      string `json:"imap_host"`
	IMAPPort      int    `json:"imap_port"`
	IMAPUsername  string `json:"imap_username"`
	IMAPPassword  string `json:"imap_password"`
	IMAPUseSSL    bool   `json:"imap_use_ssl"`
	FetchEnabled  bool   `json:"fetch_enabled"`
	LookbackHours int    `json:"lookback_hours"`
	// SenderWhitelist is a comma separated allow-list; empty allows all senders.
	SenderWhitelist string `json:"sender_whitelist"`

	// Scheduler
	Schedule            string `json:"schedule"` // cron-like, see scheduler.ParseSchedule
	PollIntervalSeconds int    `json:"poll_interval_seconds"`

	// Analysis backend credentials
	OpenAIAPIKey   string `json:"openai_api_key"`
	ClaudeAPIKey   string `json:"claude_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	OllamaBaseURL  string `json:"ollama_base_url"`
	OllamaModel    string `json:"ollama_model"`
}

// Default configuration values
const (
	DefaultDatabasePath  = "data/genaigo.db"
	DefaultAPIPort       = "8000"
	DefaultLogLevel      = "INFO"
	DefaultDataDir       = "data"
	DefaultConfigDir     = "config"
	DefaultCORSOrigins   = "*"
	DefaultIMAPPort      = 993
	DefaultLookbackHours = 24
	DefaultSchedule      = "0 2 * * *"
	DefaultPollInterval  = 60
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "llama2"
)

// Load loads configuration from environment variables and config file
// Priority: Environment variables > Config file > Default values
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:        DefaultDatabasePath,
		APIPort:             DefaultAPIPort,
		LogLevel:            DefaultLogLevel,
		DataDir:             DefaultDataDir,
		ConfigDir:           DefaultConfigDir,
		CORSOrigins:         DefaultCORSOrigins,
		IMAPPort:            DefaultIMAPPort,
		IMAPUseSSL:          true,
		FetchEnabled:        true,
		LookbackHours:       DefaultLookbackHours,
		Schedule:            DefaultSchedule,
		PollIntervalSeconds: DefaultPollInterval,
		OllamaBaseURL:       DefaultOllamaBaseURL,
		OllamaModel:         DefaultOllamaModel,
	}

	// Config file is optional
	_ = cfg.loadFromFile()

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json
func (c *Config) loadFromFile() error {
	configPaths := []string{
		"config.json",
		filepath.Join(c.ConfigDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return json.Unmarshal(data, c)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if val := os.Getenv("GENAIGO_DATABASE_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("GENAIGO_API_PORT"); val != "" {
		c.APIPort = val
	}
	if val := os.Getenv("GENAIGO_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("GENAIGO_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("GENAIGO_CONFIG_DIR"); val != "" {
		c.ConfigDir = val
	}
	if val := os.Getenv("GENAIGO_CORS_ORIGINS"); val != "" {
		c.CORSOrigins = val
	}
	if val := os.Getenv("GENAIGO_IMAP_HOST"); val != "" {
		c.IMAPHost = val
	}
	if val := os.Getenv("GENAIGO_IMAP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.IMAPPort = port
		}
	}
	if val := os.Getenv("GENAIGO_IMAP_USERNAME"); val != "" {
		c.IMAPUsername = val
	}
	if val := os.Getenv("GENAIGO_IMAP_PASSWORD"); val != "" {
		c.IMAPPassword = val
	}
	if val := os.Getenv("GENAIGO_FETCH_ENABLED"); val != "" {
		c.FetchEnabled = val == "true" || val == "1"
	}
	if val := os.Getenv("GENAIGO_LOOKBACK_HOURS"); val != "" {
		if hours, err := strconv.Atoi(val); err == nil && hours > 0 {
			c.LookbackHours = hours
		}
	}
	if val := os.Getenv("GENAIGO_SENDER_WHITELIST"); val != "" {
		c.SenderWhitelist = val
	}
	if val := os.Getenv("GENAIGO_SCHEDULE"); val != "" {
		c.Schedule = val
	}
	if val := os.Getenv("GENAIGO_POLL_INTERVAL_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			c.PollIntervalSeconds = secs
		}
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("CLAUDE_API_KEY"); val != "" {
		c.ClaudeAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("OLLAMA_BASE_URL"); val != "" {
		c.OllamaBaseURL = val
	}
	if val := os.Getenv("OLLAMA_MODEL"); val != "" {
		c.OllamaModel = val
	}
}

// WhitelistEntries returns the parsed sender allow-list, empty when unset
func (c *Config) WhitelistEntries() []string {
	if strings.TrimSpace(c.SenderWhitelist) == "" {
		return nil
	}
	parts := strings.Split(c.SenderWhitelist, ",")
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}

// SettingsPath returns the path of the processing settings override file
func (c *Config) SettingsPath() string {
	return filepath.Join(c.ConfigDir, "processingSettings.json")
}

// FetchLogPath returns the path of the fetch execution log
func (c *Config) FetchLogPath() string {
	return filepath.Join(c.DataDir, "fetch_log.json")
}

// ProcessingLogPath returns the path of the analysis processing execution log
func (c *Config) ProcessingLogPath() string {
	return filepath.Join(c.DataDir, "processing_log.json")
}
