package analysis

import (
	"encoding/json"
	"time"
)

// Entities is the structured extraction result. Parsed distinguishes a
// genuine empty extraction from a backend response that could not be
// decoded; the undecodable text is preserved verbatim in Raw.
type Entities struct {
	People    []string `json:"people"`
	Locations []string `json:"locations"`
	Events    []string `json:"events"`
	Parsed    bool     `json:"parsed"`
	Raw       string   `json:"raw,omitempty"`
}

// Metadata describes how and when a report was produced
type Metadata struct {
	AnalyzedAt time.Time         `json:"date_of_analysis"`
	Provider   Provider          `json:"provider"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Report is the structured output of one analysis call. Error carries a
// backend failure message when the call itself failed.
type Report struct {
	Entities Entities `json:"entities"`
	Metadata Metadata `json:"metadata"`
	Error    string   `json:"error,omitempty"`
}

// Failed reports whether this report represents a failed or degenerate
// analysis: an error payload, or missing analysis metadata.
func (r *Report) Failed() bool {
	return r.Error != "" || r.Metadata.AnalyzedAt.IsZero()
}

// DecodeReport parses a stored report payload. An empty or undecodable
// payload yields a zero Report, which Failed() classifies as failed.
func DecodeReport(data string) Report {
	var r Report
	if data == "" {
		return r
	}
	_ = json.Unmarshal([]byte(data), &r)
	return r
}
