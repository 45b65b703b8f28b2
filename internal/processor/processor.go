// Package processor drives idempotent analysis over the stored messages:
// it computes which messages still need analysis, runs them through the
// configured analysis engine in batches and upserts the results.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jjgarrid/genaigo/internal/analysis"
	"github.com/jjgarrid/genaigo/internal/database/models"
	"github.com/jjgarrid/genaigo/internal/joblog"
	"github.com/jjgarrid/genaigo/internal/services"
	"github.com/jjgarrid/genaigo/internal/store"
)

// ErrValidation indicates a caller-supplied input was rejected
var ErrValidation = errors.New("validation failed")

// maxSurfacedErrors caps how many per-message error strings a result carries
const maxSurfacedErrors = 5

// Processor coordinates analysis runs. All entry points are safe for
// concurrent use; a per-message in-flight guard keeps overlapping runs from
// analyzing the same message twice.
type Processor struct {
	messages   *store.MessageStore
	analyses   *store.AnalysisStore
	logService *services.LogService
	jobLog     *joblog.Log

	creds        analysis.Credentials
	settingsPath string

	mu       sync.RWMutex
	settings ProcessingSettings
	engine   *analysis.Engine

	inflight sync.Map
}

// New creates a Processor with settings loaded from settingsPath
func New(messages *store.MessageStore, analyses *store.AnalysisStore, logService *services.LogService, jobLog *joblog.Log, creds analysis.Credentials, settingsPath string) *Processor {
	return &Processor{
		messages:     messages,
		analyses:     analyses,
		logService:   logService,
		jobLog:       jobLog,
		creds:        creds,
		settingsPath: settingsPath,
		settings:     LoadSettings(settingsPath),
	}
}

// ProcessResult reports the outcome of one processing run
type ProcessResult struct {
	Status     string   `json:"status"`
	Processed  int      `json:"processed"`
	Skipped    int      `json:"skipped"`
	Errors     int      `json:"errors"`
	TotalFound int      `json:"total_found"`
	ErrorList  []string `json:"error_details,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// SpecificResult reports the outcome of an explicit-id processing run
type SpecificResult struct {
	Status    string   `json:"status"`
	Requested int      `json:"requested"`
	Found     int      `json:"found"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
	ErrorList []string `json:"error_details,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// CleanupResult reports a duplicate cleanup run
type CleanupResult struct {
	Status            string `json:"status"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	Message           string `json:"message,omitempty"`
}

// ReprocessResult reports a failed-record reprocessing run
type ReprocessResult struct {
	Status      string   `json:"status"`
	FailedFound int      `json:"failed_found"`
	Reprocessed int      `json:"reprocessed"`
	Errors      int      `json:"errors"`
	ErrorList   []string `json:"error_details,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// AnalysisStats summarizes analysis coverage over the message store
type AnalysisStats struct {
	TotalMessages       int64             `json:"total_messages"`
	AnalyzedMessages    int64             `json:"analyzed_messages"`
	UnanalyzedMessages  int64             `json:"unanalyzed_messages"`
	CoveragePercent     float64           `json:"coverage_percent"`
	AnalysisProvider    analysis.Provider `json:"analysis_provider"`
	AutoAnalysisEnabled bool              `json:"auto_analysis_enabled"`
}

// GetSettings returns a copy of the current settings
func (p *Processor) GetSettings() ProcessingSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// UpdateSettings merges the patch over the current settings and persists the
// result. The in-memory settings are swapped only after the durable write
// succeeds, so a failed write leaves the running configuration untouched.
func (p *Processor) UpdateSettings(patch SettingsPatch) (ProcessingSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	merged, err := patch.apply(p.settings)
	if err != nil {
		return p.settings, err
	}
	if err := saveSettings(p.settingsPath, merged); err != nil {
		return p.settings, fmt.Errorf("failed to persist settings: %v", err)
	}

	if merged.AnalysisProvider != p.settings.AnalysisProvider {
		// Cached engine belongs to the old provider
		p.engine = nil
	}
	p.settings = merged

	p.logService.LogInfo(models.LogModuleProcess, "update_settings", "Processing settings updated", merged)
	return merged, nil
}

// getEngine returns the analysis engine for the current provider, building
// and caching it on first use
func (p *Processor) getEngine() (*analysis.Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine != nil && p.engine.Provider() == p.settings.AnalysisProvider {
		return p.engine, nil
	}
	engine, err := analysis.NewEngine(p.settings.AnalysisProvider, p.creds)
	if err != nil {
		return nil, err
	}
	p.engine = engine
	return engine, nil
}

// ProcessUnanalyzed analyzes every stored message that has no analysis
// record yet. The result always carries a status; the run never fails as a
// whole over individual message errors.
func (p *Processor) ProcessUnanalyzed(ctx context.Context) *ProcessResult {
	settings := p.GetSettings()
	if !settings.AutoAnalysisEnabled {
		log.Println("[Processor] auto analysis is disabled")
		return &ProcessResult{Status: "disabled", Message: "auto analysis is disabled"}
	}

	pending, err := p.pendingMessages()
	if err != nil {
		p.logService.LogError(models.LogModuleProcess, "process", "Failed to compute pending set", map[string]interface{}{
			"error": err.Error(),
		})
		return &ProcessResult{Status: "error", Message: err.Error()}
	}

	result := &ProcessResult{Status: "success", TotalFound: len(pending)}
	if len(pending) == 0 {
		p.recordRun(result)
		return result
	}

	engine, err := p.getEngine()
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		p.recordRun(result)
		return result
	}

	log.Printf("[Processor] processing %d unanalyzed messages in batches of %d", len(pending), settings.BatchSize)

	for start := 0; start < len(pending); start += settings.BatchSize {
		end := start + settings.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				result.Status = "error"
				result.Message = ctx.Err().Error()
				p.recordRun(result)
				return result
			}
			p.processOne(ctx, engine, &pending[i], settings, resultTally{
				processed: &result.Processed,
				skipped:   &result.Skipped,
				errors:    &result.Errors,
				errorList: &result.ErrorList,
			})
		}
	}

	p.logService.LogInfo(models.LogModuleProcess, "process", "Processing run completed", result)
	p.recordRun(result)
	return result
}

// ProcessSpecific analyzes the given message ids regardless of the auto
// analysis switch. Unknown ids are dropped and reported through the
// found/requested counts.
func (p *Processor) ProcessSpecific(ctx context.Context, ids []string) (*SpecificResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no message ids given", ErrValidation)
	}

	settings := p.GetSettings()
	engine, err := p.getEngine()
	if err != nil {
		return &SpecificResult{Status: "error", Requested: len(ids), Message: err.Error()}, nil
	}

	result := &SpecificResult{Status: "success", Requested: len(ids)}

	for _, id := range ids {
		msg, err := p.messages.Get(id)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			result.Errors++
			appendError(&result.ErrorList, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.Found++

		p.processOne(ctx, engine, msg, settings, resultTally{
			processed: &result.Processed,
			skipped:   &result.Skipped,
			errors:    &result.Errors,
			errorList: &result.ErrorList,
		})
	}

	if result.Found < result.Requested {
		result.Message = fmt.Sprintf("%d of %d requested messages not found", result.Requested-result.Found, result.Requested)
	}

	p.recordRun(result)
	return result, nil
}

// resultTally points at the counters of whichever result type a run fills
type resultTally struct {
	processed *int
	skipped   *int
	errors    *int
	errorList *[]string
}

// processOne runs the full per-message pipeline: in-flight guard, re-check
// against the analysis store, skip policy, analysis, upsert. Counter updates
// go through the tally so both run flavors share the logic.
func (p *Processor) processOne(ctx context.Context, engine *analysis.Engine, msg *models.Message, settings ProcessingSettings, tally resultTally) {
	if _, loaded := p.inflight.LoadOrStore(msg.ID, struct{}{}); loaded {
		log.Printf("[Processor] message %s already in flight, skipping", msg.ID)
		*tally.skipped++
		return
	}
	defer p.inflight.Delete(msg.ID)

	// Another run may have finished this message since the pending set was
	// computed
	exists, err := p.analyses.Exists(msg.ID)
	if err != nil {
		*tally.errors++
		appendError(tally.errorList, fmt.Sprintf("%s: %v", msg.ID, err))
		return
	}
	if exists {
		*tally.skipped++
		return
	}

	if p.shouldSkip(msg, settings) {
		*tally.skipped++
		return
	}

	if strings.TrimSpace(msg.Content) == "" {
		log.Printf("[Processor] message %s has no content, skipping", msg.ID)
		*tally.skipped++
		return
	}

	report, err := engine.Analyze(ctx, msg.Content)
	if err != nil {
		p.logService.LogError(models.LogModuleProcess, "analyze", "Analysis failed", map[string]interface{}{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
		*tally.errors++
		appendError(tally.errorList, fmt.Sprintf("%s: %v", msg.ID, err))
		return
	}

	if err := p.storeReport(msg, report, settings); err != nil {
		*tally.errors++
		appendError(tally.errorList, fmt.Sprintf("%s: %v", msg.ID, err))
		return
	}

	*tally.processed++
}

// shouldSkip applies the skip policy. Priority senders always pass; after
// that a skip pattern matching the sender or subject rejects the message.
// Matching is case-insensitive substring.
func (p *Processor) shouldSkip(msg *models.Message, settings ProcessingSettings) bool {
	sender := strings.ToLower(msg.Sender)
	subject := strings.ToLower(msg.Subject)

	for _, priority := range settings.PrioritySenders {
		if priority != "" && strings.Contains(sender, strings.ToLower(priority)) {
			return false
		}
	}
	for _, pattern := range settings.SkipAnalysisFor {
		if pattern == "" {
			continue
		}
		needle := strings.ToLower(pattern)
		if strings.Contains(sender, needle) || strings.Contains(subject, needle) {
			log.Printf("[Processor] message %s matches skip pattern %q", msg.ID, pattern)
			return true
		}
	}
	return false
}

// storeReport serializes the report and upserts the analysis record
func (p *Processor) storeReport(msg *models.Message, report *analysis.Report, settings ProcessingSettings) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %v", err)
	}
	types, _ := json.Marshal(settings.IncludeAnalysisTypes)

	rec := &models.AnalysisRecord{
		MessageID:        msg.ID,
		Report:           string(payload),
		ProcessedAt:      time.Now().UTC(),
		AnalysisProvider: string(report.Metadata.Provider),
		AnalysisTypes:    string(types),
		MessageSubject:   msg.Subject,
		MessageSender:    msg.Sender,
	}
	return p.analyses.Upsert(rec)
}

// pendingMessages returns the stored messages with no analysis record,
// computed as a set difference so already-analyzed messages are never
// re-submitted
func (p *Processor) pendingMessages() ([]models.Message, error) {
	msgs, err := p.messages.All()
	if err != nil {
		return nil, err
	}
	analyzed, err := p.analyses.AnalyzedIDs()
	if err != nil {
		return nil, err
	}

	pending := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		if !analyzed[msg.ID] {
			pending = append(pending, msg)
		}
	}
	return pending, nil
}

// CleanupDuplicates removes redundant physical analysis rows, keeping the
// newest row per message id
func (p *Processor) CleanupDuplicates() (*CleanupResult, error) {
	recs, err := p.analyses.All()
	if err != nil {
		return &CleanupResult{Status: "error", Message: err.Error()}, err
	}

	newest := make(map[string]uint, len(recs))
	for _, rec := range recs {
		if rec.ID > newest[rec.MessageID] {
			newest[rec.MessageID] = rec.ID
		}
	}

	var stale []uint
	for _, rec := range recs {
		if rec.ID != newest[rec.MessageID] {
			stale = append(stale, rec.ID)
		}
	}

	if err := p.analyses.RemoveRows(stale); err != nil {
		return &CleanupResult{Status: "error", Message: err.Error()}, err
	}

	p.logService.LogInfo(models.LogModuleProcess, "cleanup_duplicates", "Duplicate cleanup completed", map[string]interface{}{
		"duplicates_removed": len(stale),
	})
	return &CleanupResult{Status: "success", DuplicatesRemoved: len(stale)}, nil
}

// ReprocessFailed finds analysis records marking failed or degenerate runs,
// removes them and pushes the affected messages through analysis again
func (p *Processor) ReprocessFailed(ctx context.Context) (*ReprocessResult, error) {
	recs, err := p.analyses.All()
	if err != nil {
		return &ReprocessResult{Status: "error", Message: err.Error()}, err
	}

	failedIDs := make(map[string]bool)
	for _, rec := range recs {
		report := analysis.DecodeReport(rec.Report)
		if report.Failed() {
			failedIDs[rec.MessageID] = true
		}
	}

	result := &ReprocessResult{Status: "success", FailedFound: len(failedIDs)}
	if len(failedIDs) == 0 {
		p.recordRun(result)
		return result, nil
	}

	settings := p.GetSettings()
	engine, err := p.getEngine()
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		p.recordRun(result)
		return result, nil
	}

	for id := range failedIDs {
		if err := p.analyses.Remove(id); err != nil {
			result.Errors++
			appendError(&result.ErrorList, fmt.Sprintf("%s: %v", id, err))
			continue
		}

		msg, err := p.messages.Get(id)
		if err != nil {
			// Record removed but the message is gone; nothing to redo
			if store.IsNotFound(err) {
				continue
			}
			result.Errors++
			appendError(&result.ErrorList, fmt.Sprintf("%s: %v", id, err))
			continue
		}

		var skipped int
		p.processOne(ctx, engine, msg, settings, resultTally{
			processed: &result.Reprocessed,
			skipped:   &skipped,
			errors:    &result.Errors,
			errorList: &result.ErrorList,
		})
	}

	p.logService.LogInfo(models.LogModuleProcess, "reprocess_failed", "Reprocessing run completed", result)
	p.recordRun(result)
	return result, nil
}

// GetAnalysisStats computes analysis coverage over the message store
func (p *Processor) GetAnalysisStats() (*AnalysisStats, error) {
	total, err := p.messages.Count()
	if err != nil {
		return nil, err
	}
	analyzed, err := p.analyses.CountDistinct()
	if err != nil {
		return nil, err
	}
	if analyzed > total {
		// Orphaned analysis records point at deleted messages
		analyzed = total
	}

	settings := p.GetSettings()
	stats := &AnalysisStats{
		TotalMessages:       total,
		AnalyzedMessages:    analyzed,
		UnanalyzedMessages:  total - analyzed,
		AnalysisProvider:    settings.AnalysisProvider,
		AutoAnalysisEnabled: settings.AutoAnalysisEnabled,
	}
	if total > 0 {
		stats.CoveragePercent = float64(analyzed) / float64(total) * 100
	}
	return stats, nil
}

// GetReport returns the decoded analysis report for a message id
func (p *Processor) GetReport(messageID string) (*analysis.Report, error) {
	rec, err := p.analyses.Get(messageID)
	if err != nil {
		return nil, err
	}
	report := analysis.DecodeReport(rec.Report)
	return &report, nil
}

// recordRun appends the run outcome to the bounded execution log
func (p *Processor) recordRun(result interface{}) {
	if p.jobLog == nil {
		return
	}
	if err := p.jobLog.Append(result); err != nil {
		log.Printf("[Processor] failed to record run: %v", err)
	}
}

// appendError adds one error string, bounded at maxSurfacedErrors
func appendError(list *[]string, msg string) {
	if len(*list) < maxSurfacedErrors {
		*list = append(*list, msg)
	}
}
