// Package analysis turns message text into a structured entity report via
// one of several interchangeable text-analysis backends.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Engine builds a provider-agnostic prompt, dispatches it to the configured
// backend and parses the response into a Report. A malformed backend
// response never fails the call; it degrades to an unparsed report.
type Engine struct {
	provider   Provider
	backend    Backend
	parameters map[string]string
}

// NewEngine constructs an Engine for the named provider
func NewEngine(provider Provider, creds Credentials) (*Engine, error) {
	backend, err := SelectBackend(provider, creds)
	if err != nil {
		return nil, err
	}
	params := map[string]string{}
	if provider == ProviderOllama {
		params["model"] = creds.OllamaModel
	}
	return &Engine{
		provider:   provider,
		backend:    backend,
		parameters: params,
	}, nil
}

// Provider returns the provider this engine dispatches to
func (e *Engine) Provider() Provider {
	return e.provider
}

// Analyze runs entity extraction over the given content. The returned error
// is non-nil only for backend transport failures; parse failures are
// absorbed into the report.
func (e *Engine) Analyze(ctx context.Context, content string) (*Report, error) {
	prompt := buildPrompt(content)

	raw, err := e.backend.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Entities: parseEntities(raw),
		Metadata: Metadata{
			AnalyzedAt: time.Now().UTC(),
			Provider:   e.provider,
			Parameters: e.parameters,
		},
	}
	return report, nil
}

// buildPrompt returns the fixed extraction instruction template
func buildPrompt(content string) string {
	return fmt.Sprintf(
		"Extract the following from the email content: "+
			"1. Key people\n2. Key locations\n3. Key events. "+
			"Return as JSON with keys: people, locations, events.\n\n"+
			"Email content:\n%s", content)
}

// parseEntities decodes the backend response. Models often wrap JSON in a
// markdown fence or surrounding prose, so the first balanced object is
// extracted before decoding. Anything undecodable yields an unparsed result
// carrying the raw text.
func parseEntities(raw string) Entities {
	candidate := extractJSONObject(raw)
	if candidate != "" {
		var decoded struct {
			People    []string `json:"people"`
			Locations []string `json:"locations"`
			Events    []string `json:"events"`
		}
		if err := json.Unmarshal([]byte(candidate), &decoded); err == nil {
			return Entities{
				People:    orEmpty(decoded.People),
				Locations: orEmpty(decoded.Locations),
				Events:    orEmpty(decoded.Events),
				Parsed:    true,
			}
		}
	}

	return Entities{
		People:    []string{},
		Locations: []string{},
		Events:    []string{},
		Parsed:    false,
		Raw:       raw,
	}
}

// extractJSONObject returns the first balanced {...} span in s, or ""
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
