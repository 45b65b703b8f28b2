package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jjgarrid/genaigo/internal/analysis"
	"github.com/jjgarrid/genaigo/internal/database"
	"github.com/jjgarrid/genaigo/internal/processor"
	"github.com/jjgarrid/genaigo/internal/store"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func setupSettingsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir := t.TempDir()
	db, err := database.Initialize(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	p := processor.New(
		store.NewMessageStore(db),
		store.NewAnalysisStore(db),
		nil, nil,
		analysis.Credentials{},
		filepath.Join(tempDir, "processingSettings.json"),
	)

	handler := NewSettingsHandler(p)
	router := gin.New()
	router.GET("/api/settings", handler.GetSettings)
	router.PUT("/api/settings", handler.UpdateSettings)
	return router
}

type settingsEnvelope struct {
	Success bool                         `json:"success"`
	Data    processor.ProcessingSettings `json:"data"`
}

// For any valid settings update, a PUT followed by a GET returns the
// updated values.
func TestProperty_SettingsRoundtrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	batchGen := gen.IntRange(1, 100)
	boolGen := gen.Bool()

	properties.Property("put_then_get_returns_update", prop.ForAll(
		func(batchSize int, autoEnabled bool) bool {
			router := setupSettingsRouter(t)

			body, _ := json.Marshal(map[string]interface{}{
				"batch_size":            batchSize,
				"auto_analysis_enabled": autoEnabled,
			})
			put := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(put, req)
			if put.Code != http.StatusOK {
				return false
			}

			get := httptest.NewRecorder()
			router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
			if get.Code != http.StatusOK {
				return false
			}

			var envelope settingsEnvelope
			if err := json.Unmarshal(get.Body.Bytes(), &envelope); err != nil {
				return false
			}
			return envelope.Success &&
				envelope.Data.BatchSize == batchSize &&
				envelope.Data.AutoAnalysisEnabled == autoEnabled
		},
		batchGen, boolGen,
	))

	properties.TestingRun(t)
}

func TestUpdateSettingsWriteFailureKeepsCurrentSettings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tempDir := t.TempDir()

	db, err := database.Initialize(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}

	// Parent path is a regular file, so persisting the update must fail
	blocker := filepath.Join(tempDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	p := processor.New(
		store.NewMessageStore(db),
		store.NewAnalysisStore(db),
		nil, nil,
		analysis.Credentials{},
		filepath.Join(blocker, "nested", "processingSettings.json"),
	)

	handler := NewSettingsHandler(p)
	router := gin.New()
	router.GET("/api/settings", handler.GetSettings)
	router.PUT("/api/settings", handler.UpdateSettings)

	before := p.GetSettings()

	body := []byte(`{"batch_size": 42}`)
	put := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(put, req)
	if put.Code != http.StatusInternalServerError {
		t.Fatalf("PUT status = %d, want 500", put.Code)
	}

	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if get.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", get.Code)
	}
	var envelope settingsEnvelope
	if err := json.Unmarshal(get.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if envelope.Data.BatchSize != before.BatchSize {
		t.Errorf("batch size changed to %d after failed write, want %d", envelope.Data.BatchSize, before.BatchSize)
	}
}

func TestUpdateSettingsRejectsUnrecognizedBody(t *testing.T) {
	router := setupSettingsRouter(t)

	cases := []string{
		`{}`,
		`{"unknown_field": true}`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestUpdateSettingsRejectsInvalidValues(t *testing.T) {
	router := setupSettingsRouter(t)

	cases := []string{
		`{"batch_size": 0}`,
		`{"batch_size": -3}`,
		`{"analysis_provider": "gemini"}`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s: status = %d, want 400", body, w.Code)
		}
	}
}
