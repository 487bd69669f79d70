package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

func record(i int, at time.Time) *models.RunRecord {
	started := at
	return &models.RunRecord{
		ID:        fmt.Sprintf("rec-%02d", i),
		RunID:     fmt.Sprintf("example_com_2025031%d_000000", i),
		URL:       "https://example.com",
		Task:      "check the homepage",
		Status:    models.RunStatusRunning,
		CreatedAt: at,
		StartedAt: &started,
	}
}

func runStoreSuite(t *testing.T, s Store) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		rec := record(1, base)
		if err := s.CreateRun(rec); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		got, err := s.GetRun("rec-01")
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		if got.RunID != rec.RunID || got.URL != rec.URL || got.Status != models.RunStatusRunning {
			t.Errorf("GetRun returned %+v", got)
		}
		if got.StartedAt == nil {
			t.Error("StartedAt should round-trip")
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := s.GetRun("nope"); err != ErrRunNotFound {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		for i := 2; i <= 4; i++ {
			if err := s.CreateRun(record(i, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("CreateRun: %v", err)
			}
		}
		runs, err := s.ListRuns(0)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 4 {
			t.Fatalf("expected 4 runs, got %d", len(runs))
		}
		if runs[0].ID != "rec-04" || runs[len(runs)-1].ID != "rec-01" {
			t.Errorf("unexpected order: first=%s last=%s", runs[0].ID, runs[len(runs)-1].ID)
		}

		limited, err := s.ListRuns(2)
		if err != nil {
			t.Fatalf("ListRuns limited: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 runs with limit, got %d", len(limited))
		}
	})

	t.Run("finish run", func(t *testing.T) {
		done := base.Add(10 * time.Hour)
		err := s.FinishRun(&models.RunRecord{
			RunID:       "example_com_20250313_000000",
			Status:      models.RunStatusCompleted,
			Mode:        models.ModeSimulated,
			Result:      "demo output",
			ReportPath:  "/runs/x/report.html",
			CompletedAt: &done,
		})
		if err != nil {
			t.Fatalf("FinishRun: %v", err)
		}
		got, err := s.GetRunByRunID("example_com_20250313_000000")
		if err != nil {
			t.Fatalf("GetRunByRunID: %v", err)
		}
		if got.Status != models.RunStatusCompleted || got.Mode != models.ModeSimulated {
			t.Errorf("terminal fields not applied: %+v", got)
		}
		if got.CompletedAt == nil {
			t.Error("CompletedAt should be set")
		}
	})

	t.Run("finish missing", func(t *testing.T) {
		err := s.FinishRun(&models.RunRecord{RunID: "missing_20250101_000000", Status: models.RunStatusFailed})
		if err != ErrRunNotFound {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("prune old runs", func(t *testing.T) {
		pruned, err := s.PruneBefore(base.Add(90 * time.Minute))
		if err != nil {
			t.Fatalf("PruneBefore: %v", err)
		}
		if pruned != 1 {
			t.Errorf("pruned = %d, want 1 (only rec-01 predates the cutoff)", pruned)
		}
		if _, err := s.GetRun("rec-01"); err != ErrRunNotFound {
			t.Errorf("rec-01 should be gone, got %v", err)
		}
	})

	t.Run("delete run", func(t *testing.T) {
		if err := s.DeleteRun("rec-02"); err != nil {
			t.Fatalf("DeleteRun: %v", err)
		}
		if err := s.DeleteRun("rec-02"); err != ErrRunNotFound {
			t.Errorf("second delete: expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("vacuum", func(t *testing.T) {
		if err := s.Vacuum(); err != nil {
			t.Errorf("Vacuum: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	runStoreSuite(t, s)
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	s := NewMemoryStore()
	rec := record(9, time.Now())
	if err := s.CreateRun(rec); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	rec.URL = "https://mutated.example"
	got, err := s.GetRun(rec.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.URL != "https://example.com" {
		t.Error("store should hold its own copy, caller mutation leaked in")
	}
}
