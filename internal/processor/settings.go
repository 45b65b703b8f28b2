package processor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jjgarrid/genaigo/internal/analysis"
)

// ProcessingSettings is the process-wide pipeline configuration. Defaults
// are computed at startup and overlaid with the persisted override file;
// mutations go through Processor.UpdateSettings only.
type ProcessingSettings struct {
	AutoAnalysisEnabled  bool              `json:"auto_analysis_enabled"`
	AnalysisProvider     analysis.Provider `json:"analysis_provider"`
	ProcessOnFetch       bool              `json:"process_on_fetch"`
	BatchSize            int               `json:"batch_size"`
	IncludeAnalysisTypes []string          `json:"include_analysis_types"`
	PrioritySenders      []string          `json:"priority_senders"`
	SkipAnalysisFor      []string          `json:"skip_analysis_for"`
}

// DefaultSettings returns the startup defaults. The provider default can be
// steered by GENAIGO_ANALYSIS_PROVIDER.
func DefaultSettings() ProcessingSettings {
	provider := analysis.Provider(os.Getenv("GENAIGO_ANALYSIS_PROVIDER"))
	if !provider.IsValid() {
		provider = analysis.ProviderDeepSeek
	}
	return ProcessingSettings{
		AutoAnalysisEnabled:  true,
		AnalysisProvider:     provider,
		ProcessOnFetch:       true,
		BatchSize:            10,
		IncludeAnalysisTypes: []string{"entities", "summary", "categorization"},
		PrioritySenders:      []string{},
		SkipAnalysisFor:      []string{"automated", "notifications"},
	}
}

// LoadSettings returns the defaults overlaid with the persisted override
// file. A missing or unreadable file yields the defaults.
func LoadSettings(path string) ProcessingSettings {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	// Unmarshal over the defaults so absent fields keep their default values
	_ = json.Unmarshal(data, &settings)
	if settings.BatchSize <= 0 {
		settings.BatchSize = 10
	}
	return settings
}

// saveSettings writes settings durably. Temp file plus rename so a failed
// write never leaves a truncated override file behind.
func saveSettings(path string, settings ProcessingSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SettingsPatch is a partial settings update; nil fields are left unchanged
type SettingsPatch struct {
	AutoAnalysisEnabled  *bool              `json:"auto_analysis_enabled"`
	AnalysisProvider     *analysis.Provider `json:"analysis_provider"`
	ProcessOnFetch       *bool              `json:"process_on_fetch"`
	BatchSize            *int               `json:"batch_size"`
	IncludeAnalysisTypes *[]string          `json:"include_analysis_types"`
	PrioritySenders      *[]string          `json:"priority_senders"`
	SkipAnalysisFor      *[]string          `json:"skip_analysis_for"`
}

// Empty reports whether the patch carries no recognized fields
func (p *SettingsPatch) Empty() bool {
	return p.AutoAnalysisEnabled == nil &&
		p.AnalysisProvider == nil &&
		p.ProcessOnFetch == nil &&
		p.BatchSize == nil &&
		p.IncludeAnalysisTypes == nil &&
		p.PrioritySenders == nil &&
		p.SkipAnalysisFor == nil
}

// apply merges the patch over base and validates the result
func (p *SettingsPatch) apply(base ProcessingSettings) (ProcessingSettings, error) {
	merged := base
	if p.AutoAnalysisEnabled != nil {
		merged.AutoAnalysisEnabled = *p.AutoAnalysisEnabled
	}
	if p.AnalysisProvider != nil {
		if !p.AnalysisProvider.IsValid() {
			return base, fmt.Errorf("%w: unknown analysis provider %q", ErrValidation, *p.AnalysisProvider)
		}
		merged.AnalysisProvider = *p.AnalysisProvider
	}
	if p.ProcessOnFetch != nil {
		merged.ProcessOnFetch = *p.ProcessOnFetch
	}
	if p.BatchSize != nil {
		if *p.BatchSize <= 0 {
			return base, fmt.Errorf("%w: batch_size must be positive", ErrValidation)
		}
		merged.BatchSize = *p.BatchSize
	}
	if p.IncludeAnalysisTypes != nil {
		merged.IncludeAnalysisTypes = *p.IncludeAnalysisTypes
	}
	if p.PrioritySenders != nil {
		merged.PrioritySenders = *p.PrioritySenders
	}
	if p.SkipAnalysisFor != nil {
		merged.SkipAnalysisFor = *p.SkipAnalysisFor
	}
	return merged, nil
}
