package services

import (
	"path/filepath"
	"testing"

	"github.com/jjgarrid/genaigo/internal/database"
	"github.com/jjgarrid/genaigo/internal/database/models"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	return db
}

func TestLogLevelFiltering(t *testing.T) {
	db := setupTestDB(t)
	s := NewLogServiceWithLevel(db, "WARN")

	if err := s.LogDebug(models.LogModuleFetch, "a", "debug msg", nil); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if err := s.LogInfo(models.LogModuleFetch, "a", "info msg", nil); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if err := s.LogError(models.LogModuleFetch, "a", "error msg", map[string]interface{}{"k": "v"}); err != nil {
		t.Fatalf("log failed: %v", err)
	}

	logs, err := s.GetRecentLogs(10)
	if err != nil {
		t.Fatalf("get logs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected only the error entry, got %d", len(logs))
	}
	if logs[0].Level != string(models.LogLevelError) || logs[0].Details == "" {
		t.Errorf("unexpected entry: %+v", logs[0])
	}
}

func TestGetLogsByModule(t *testing.T) {
	db := setupTestDB(t)
	s := NewLogService(db)

	if err := s.LogInfo(models.LogModuleFetch, "fetch", "fetched", nil); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if err := s.LogInfo(models.LogModuleProcess, "process", "processed", nil); err != nil {
		t.Fatalf("log failed: %v", err)
	}

	logs, err := s.GetLogsByModule(models.LogModuleProcess, 10)
	if err != nil {
		t.Fatalf("get logs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Module != string(models.LogModuleProcess) {
		t.Errorf("unexpected logs: %+v", logs)
	}
}

func TestNilServiceIsSafe(t *testing.T) {
	var s *LogService
	if err := s.LogInfo(models.LogModuleAPI, "a", "m", nil); err != nil {
		t.Errorf("nil service should be a no-op, got %v", err)
	}
}
