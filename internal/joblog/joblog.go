// Package joblog keeps a bounded execution log of job runs, persisted as a
// JSON file capped at the most recent entries. Entries are held in memory
// after the initial load so an append writes the file once instead of
// re-reading it every time.
package joblog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries is the retention cap for a job log
const DefaultMaxEntries = 100

// Entry is one recorded job run
type Entry struct {
	RunID     string          `json:"run_id"`
	Timestamp time.Time       `json:"timestamp"`
	Result    json.RawMessage `json:"result"`
}

// Log is a bounded, file-backed execution log. Safe for concurrent use.
type Log struct {
	path       string
	maxEntries int

	mu      sync.Mutex
	entries []Entry
}

// Open loads (or creates) the job log at path. A missing or corrupt file
// starts an empty log rather than failing.
func Open(path string) *Log {
	return OpenWithLimit(path, DefaultMaxEntries)
}

// OpenWithLimit loads a job log with a custom retention cap
func OpenWithLimit(path string, maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	l := &Log{path: path, maxEntries: maxEntries}

	data, err := os.ReadFile(path)
	if err == nil {
		var entries []Entry
		if json.Unmarshal(data, &entries) == nil {
			if len(entries) > maxEntries {
				entries = entries[len(entries)-maxEntries:]
			}
			l.entries = entries
		}
	}
	return l
}

// Append records one job result, trimming to the retention cap
func (l *Log) Append(result interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Result:    payload,
	})
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}

	return l.flushLocked()
}

// Recent returns up to limit entries, newest last. limit <= 0 returns all
// retained entries.
func (l *Log) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, limit)
	copy(out, l.entries[n-limit:])
	return out
}

// Len returns the number of retained entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
