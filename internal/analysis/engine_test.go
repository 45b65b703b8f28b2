package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSelectBackendUnknownProvider(t *testing.T) {
	_, err := SelectBackend(Provider("gemini"), Credentials{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}

	_, err = NewEngine(Provider(""), Credentials{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider from NewEngine, got %v", err)
	}
}

func TestParseEntitiesWellFormed(t *testing.T) {
	raw := `Here is the result:
{"people": ["Alice", "Bob"], "locations": ["Paris"], "events": ["meeting"]}
Hope that helps!`

	entities := parseEntities(raw)
	if !entities.Parsed {
		t.Fatal("expected a parsed result")
	}
	if len(entities.People) != 2 || entities.People[0] != "Alice" {
		t.Errorf("unexpected people: %v", entities.People)
	}
	if len(entities.Locations) != 1 || entities.Locations[0] != "Paris" {
		t.Errorf("unexpected locations: %v", entities.Locations)
	}
	if len(entities.Events) != 1 {
		t.Errorf("unexpected events: %v", entities.Events)
	}
}

func TestParseEntitiesNullLists(t *testing.T) {
	entities := parseEntities(`{"people": null, "locations": null, "events": null}`)
	if !entities.Parsed {
		t.Fatal("expected a parsed result")
	}
	if entities.People == nil || entities.Locations == nil || entities.Events == nil {
		t.Error("null lists should decode to empty slices")
	}
}

// For any backend text, parsing never fails: it either yields a parsed
// entity set or degrades to an unparsed result carrying the raw text.
func TestProperty_ParseEntitiesNeverFails(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	rawGen := gen.AnyString()

	properties.Property("degraded_result_keeps_raw_text", prop.ForAll(
		func(raw string) bool {
			entities := parseEntities(raw)
			if entities.Parsed {
				return entities.People != nil && entities.Locations != nil && entities.Events != nil
			}
			return entities.Raw == raw &&
				len(entities.People) == 0 &&
				len(entities.Locations) == 0 &&
				len(entities.Events) == 0
		},
		rawGen,
	))

	properties.TestingRun(t)
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`},
		{`prefix {"a": "brace } in string"} suffix`, `{"a": "brace } in string"}`},
		{`no object here`, ""},
		{`{"unterminated": `, ""},
	}
	for _, tc := range cases {
		if got := extractJSONObject(tc.in); got != tc.want {
			t.Errorf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEngineAnalyzeAgainstOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "{\"people\": [\"Carol\"], \"locations\": [], \"events\": [\"launch\"]}"}`))
	}))
	defer server.Close()

	engine, err := NewEngine(ProviderOllama, Credentials{OllamaBaseURL: server.URL, OllamaModel: "llama2"})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	report, err := engine.Analyze(context.Background(), "some message content")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !report.Entities.Parsed {
		t.Fatal("expected parsed entities")
	}
	if len(report.Entities.People) != 1 || report.Entities.People[0] != "Carol" {
		t.Errorf("unexpected people: %v", report.Entities.People)
	}
	if report.Metadata.Provider != ProviderOllama {
		t.Errorf("unexpected provider: %s", report.Metadata.Provider)
	}
	if report.Metadata.AnalyzedAt.IsZero() {
		t.Error("expected analysis timestamp to be set")
	}
	if report.Failed() {
		t.Error("successful report classified as failed")
	}
}

func TestEngineAnalyzeBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	engine, err := NewEngine(ProviderOllama, Credentials{OllamaBaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	_, err = engine.Analyze(context.Background(), "content")
	if !errors.Is(err, ErrBackendCallFailed) {
		t.Fatalf("expected ErrBackendCallFailed, got %v", err)
	}
}

func TestDecodeReportFailedClassification(t *testing.T) {
	if r := DecodeReport(""); !r.Failed() {
		t.Error("empty payload should classify as failed")
	}
	if r := DecodeReport(`{"error": "backend timeout"}`); !r.Failed() {
		t.Error("error payload should classify as failed")
	}
	if r := DecodeReport(`not json at all`); !r.Failed() {
		t.Error("undecodable payload should classify as failed")
	}
	ok := `{"entities": {"people": [], "locations": [], "events": [], "parsed": true}, "metadata": {"date_of_analysis": "2025-06-01T10:00:00Z", "provider": "ollama"}}`
	if r := DecodeReport(ok); r.Failed() {
		t.Error("healthy payload classified as failed")
	}
}
