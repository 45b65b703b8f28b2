// Package fetcher retrieves candidate messages from the source mailbox
// within a lookback window and lands the new ones in the message store.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jjgarrid/genaigo/internal/database/models"
	"github.com/jjgarrid/genaigo/internal/services"
	"github.com/jjgarrid/genaigo/internal/store"
)

// ErrSourceUnavailable indicates a transport or auth level failure talking
// to the source mailbox. It is the only failure that fails a whole fetch.
var ErrSourceUnavailable = errors.New("mail source unavailable")

// RawMessage is one candidate message as delivered by the source
type RawMessage struct {
	ID      string
	Subject string
	Sender  string
	Date    string
	Body    string
}

// Source lists candidate messages received since a point in time. Listing
// blocks for the duration of the underlying network calls; implementations
// must honor ctx cancellation between calls.
type Source interface {
	ListRecent(ctx context.Context, since time.Time) ([]RawMessage, error)
}

// FetchResult reports the outcome of one fetch run
type FetchResult struct {
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	TotalFound int    `json:"total_found"`
	Message    string `json:"message,omitempty"`
}

// Options configures a Fetcher
type Options struct {
	Enabled       bool
	LookbackHours int
	// Whitelist restricts ingestion to these sender addresses; empty allows all.
	Whitelist []string
}

// Fetcher pulls recent messages from a Source, rejects incomplete or
// non-whitelisted candidates, fingerprints the body and inserts anything
// not already stored. Per-message failures are counted as skipped; only a
// source-level failure fails the run.
type Fetcher struct {
	source     Source
	messages   *store.MessageStore
	logService *services.LogService
	opts       Options
}

// New creates a Fetcher over the given source and message store
func New(source Source, messages *store.MessageStore, logService *services.LogService, opts Options) *Fetcher {
	if opts.LookbackHours <= 0 {
		opts.LookbackHours = 24
	}
	return &Fetcher{
		source:     source,
		messages:   messages,
		logService: logService,
		opts:       opts,
	}
}

// FetchRecent runs one fetch cycle. The returned error is non-nil only for
// source transport/auth failures; the result is always populated.
func (f *Fetcher) FetchRecent(ctx context.Context) (*FetchResult, error) {
	if !f.opts.Enabled {
		log.Println("[Fetcher] fetching is disabled")
		return &FetchResult{Status: "disabled"}, nil
	}

	since := time.Now().UTC().Add(-time.Duration(f.opts.LookbackHours) * time.Hour)

	candidates, err := f.source.ListRecent(ctx, since)
	if err != nil {
		f.logService.LogError(models.LogModuleFetch, "fetch", "Source listing failed", map[string]interface{}{
			"error": err.Error(),
		})
		return &FetchResult{Status: "error", Message: err.Error()}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	result := &FetchResult{Status: "success", TotalFound: len(candidates)}

	for _, candidate := range candidates {
		if err := f.ingest(candidate); err != nil {
			result.Skipped++
			continue
		}
		result.Processed++
	}

	f.logService.LogInfo(models.LogModuleFetch, "fetch", "Fetch completed", map[string]interface{}{
		"total_found": result.TotalFound,
		"processed":   result.Processed,
		"skipped":     result.Skipped,
	})

	return result, nil
}

var errSkipped = errors.New("message skipped")

// ingest validates one candidate and inserts it when new. Any rejection
// returns errSkipped so the caller counts it without aborting the run.
func (f *Fetcher) ingest(candidate RawMessage) error {
	if candidate.ID == "" || candidate.Subject == "" || candidate.Sender == "" ||
		candidate.Date == "" || strings.TrimSpace(candidate.Body) == "" {
		log.Printf("[Fetcher] missing required fields for message %q, skipping", candidate.ID)
		return errSkipped
	}

	if !f.isWhitelisted(candidate.Sender) {
		log.Printf("[Fetcher] sender %q not whitelisted, skipping", candidate.Sender)
		return errSkipped
	}

	exists, err := f.messages.Exists(candidate.ID)
	if err != nil {
		log.Printf("[Fetcher] duplicate check failed for %s: %v", candidate.ID, err)
		return errSkipped
	}
	if exists {
		return errSkipped
	}

	msg := &models.Message{
		ID:          candidate.ID,
		Subject:     candidate.Subject,
		Sender:      candidate.Sender,
		Date:        candidate.Date,
		Content:     candidate.Body,
		ContentHash: Fingerprint(candidate.Body),
		RetrievedAt: time.Now().UTC(),
	}

	if err := f.messages.Insert(msg); err != nil {
		log.Printf("[Fetcher] failed to store message %s: %v", candidate.ID, err)
		return errSkipped
	}

	return nil
}

// isWhitelisted checks the sender against the allow-list. An empty list
// allows everything. "Name <addr>" forms are unwrapped before comparison.
func (f *Fetcher) isWhitelisted(sender string) bool {
	if len(f.opts.Whitelist) == 0 {
		return true
	}
	addr := extractAddress(sender)
	for _, w := range f.opts.Whitelist {
		if strings.EqualFold(addr, strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

// extractAddress pulls the bare address out of "Name <email@domain>" forms
func extractAddress(sender string) string {
	if open := strings.Index(sender, "<"); open >= 0 {
		if close := strings.Index(sender[open:], ">"); close > 0 {
			return strings.TrimSpace(sender[open+1 : open+close])
		}
	}
	return strings.TrimSpace(sender)
}

// Fingerprint computes the deterministic content hash of a message body
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
