package fetcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jjgarrid/genaigo/internal/database"
	"github.com/jjgarrid/genaigo/internal/store"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// fakeSource returns a fixed candidate list, or an error
type fakeSource struct {
	messages []RawMessage
	err      error
	calls    int
}

func (s *fakeSource) ListRecent(ctx context.Context, since time.Time) ([]RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.messages, nil
}

func newTestStore(t *testing.T) *store.MessageStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	return store.NewMessageStore(db)
}

func candidate(i int) RawMessage {
	return RawMessage{
		ID:      fmt.Sprintf("<m%d@example.com>", i),
		Subject: fmt.Sprintf("subject %d", i),
		Sender:  "alice@example.com",
		Date:    "Mon, 02 Jun 2025 10:00:00 +0000",
		Body:    fmt.Sprintf("body %d", i),
	}
}

func TestFetchDisabled(t *testing.T) {
	source := &fakeSource{}
	f := New(source, newTestStore(t), nil, Options{Enabled: false})

	result, err := f.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "disabled" {
		t.Errorf("status = %q, want disabled", result.Status)
	}
	if source.calls != 0 {
		t.Error("disabled fetch must not touch the source")
	}
}

func TestFetchSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	f := New(source, newTestStore(t), nil, Options{Enabled: true})

	result, err := f.FetchRecent(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if result.Status != "error" || result.Message == "" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	source := &fakeSource{messages: []RawMessage{candidate(1), candidate(2)}}
	f := New(source, newTestStore(t), nil, Options{Enabled: true})

	first, err := f.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if first.Processed != 2 || first.Skipped != 0 {
		t.Fatalf("first fetch: %+v", first)
	}

	second, err := f.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if second.Processed != 0 || second.Skipped != 2 {
		t.Errorf("second fetch should skip everything: %+v", second)
	}
}

func TestFetchRejectsIncompleteCandidates(t *testing.T) {
	noSubject := candidate(1)
	noSubject.Subject = ""
	emptyBody := candidate(2)
	emptyBody.Body = "   \n"

	source := &fakeSource{messages: []RawMessage{noSubject, emptyBody, candidate(3)}}
	f := New(source, newTestStore(t), nil, Options{Enabled: true})

	result, err := f.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 2 || result.TotalFound != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestWhitelist(t *testing.T) {
	allowed := candidate(1)
	allowed.Sender = "Alice Smith <ALICE@Example.com>"
	blocked := candidate(2)
	blocked.Sender = "mallory@evil.example"

	source := &fakeSource{messages: []RawMessage{allowed, blocked}}
	f := New(source, newTestStore(t), nil, Options{
		Enabled:   true,
		Whitelist: []string{"alice@example.com"},
	})

	result, err := f.FetchRecent(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExtractAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alice <alice@example.com>", "alice@example.com"},
		{"alice@example.com", "alice@example.com"},
		{"  bob@example.com  ", "bob@example.com"},
		{"Broken <unclosed@example.com", "Broken <unclosed@example.com"},
	}
	for _, tc := range cases {
		if got := extractAddress(tc.in); got != tc.want {
			t.Errorf("extractAddress(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// For any candidate set, running the same fetch twice never ingests a
// message twice: second-run processed is always zero.
func TestProperty_RefetchNeverDuplicates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	countGen := gen.IntRange(0, 10)

	properties.Property("second_run_processes_nothing", prop.ForAll(
		func(count int) bool {
			msgs := make([]RawMessage, count)
			for i := range msgs {
				msgs[i] = candidate(i)
			}
			source := &fakeSource{messages: msgs}
			messages := newTestStore(t)
			f := New(source, messages, nil, Options{Enabled: true})

			first, err := f.FetchRecent(context.Background())
			if err != nil || first.Processed != count {
				return false
			}
			second, err := f.FetchRecent(context.Background())
			if err != nil || second.Processed != 0 || second.Skipped != count {
				return false
			}

			stored, err := messages.Count()
			return err == nil && stored == int64(count)
		},
		countGen,
	))

	properties.TestingRun(t)
}

func TestFingerprintIsDeterministic(t *testing.T) {
	a := Fingerprint("hello")
	b := Fingerprint("hello")
	if a != b {
		t.Error("same body must produce the same fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
	if Fingerprint("other") == a {
		t.Error("different bodies should not collide")
	}
}
