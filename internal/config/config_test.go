package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir changes into dir for the duration of the test, matching the
// behavior of t.Chdir (which requires Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIPort != DefaultAPIPort {
		t.Errorf("api port = %q, want %q", cfg.APIPort, DefaultAPIPort)
	}
	if cfg.LookbackHours != DefaultLookbackHours {
		t.Errorf("lookback = %d, want %d", cfg.LookbackHours, DefaultLookbackHours)
	}
	if cfg.Schedule != DefaultSchedule {
		t.Errorf("schedule = %q, want %q", cfg.Schedule, DefaultSchedule)
	}
	if !cfg.IMAPUseSSL || !cfg.FetchEnabled {
		t.Error("SSL and fetching should default to enabled")
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GENAIGO_API_PORT", "9999")
	t.Setenv("GENAIGO_LOOKBACK_HOURS", "48")
	t.Setenv("GENAIGO_SCHEDULE", "0 */4 * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Errorf("api port = %q, want 9999", cfg.APIPort)
	}
	if cfg.LookbackHours != 48 {
		t.Errorf("lookback = %d, want 48", cfg.LookbackHours)
	}
	if cfg.Schedule != "0 */4 * * *" {
		t.Errorf("schedule = %q", cfg.Schedule)
	}
}

func TestInvalidEnvValuesAreIgnored(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GENAIGO_LOOKBACK_HOURS", "not-a-number")
	t.Setenv("GENAIGO_POLL_INTERVAL_SECONDS", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.LookbackHours != DefaultLookbackHours {
		t.Errorf("lookback = %d, want default", cfg.LookbackHours)
	}
	if cfg.PollIntervalSeconds != DefaultPollInterval {
		t.Errorf("poll interval = %d, want default", cfg.PollIntervalSeconds)
	}
}

func TestWhitelistEntries(t *testing.T) {
	cfg := &Config{SenderWhitelist: " alice@example.com, bob@example.com ,, "}
	entries := cfg.WhitelistEntries()
	if len(entries) != 2 || entries[0] != "alice@example.com" || entries[1] != "bob@example.com" {
		t.Errorf("unexpected entries: %v", entries)
	}

	empty := &Config{SenderWhitelist: "   "}
	if entries := empty.WhitelistEntries(); entries != nil {
		t.Errorf("blank whitelist should yield nil, got %v", entries)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "data", ConfigDir: "config"}
	if got := cfg.SettingsPath(); got != filepath.Join("config", "processingSettings.json") {
		t.Errorf("settings path = %q", got)
	}
	if got := cfg.FetchLogPath(); got != filepath.Join("data", "fetch_log.json") {
		t.Errorf("fetch log path = %q", got)
	}
	if got := cfg.ProcessingLogPath(); got != filepath.Join("data", "processing_log.json") {
		t.Errorf("processing log path = %q", got)
	}
}
