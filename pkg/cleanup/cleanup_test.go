package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

func mkRunDir(t *testing.T, base, name string) string {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(filepath.Join(dir, "screenshots"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}

func TestSweepDeletesExpiredRunDirs(t *testing.T) {
	base := t.TempDir()
	old := mkRunDir(t, base, "example_com_20200101_120000")
	fresh := mkRunDir(t, base, "example_com_"+time.Now().Format("20060102_150405"))
	inUse := mkRunDir(t, base, "busy_site_20200101_120000")

	// A stray file should never be touched
	stray := filepath.Join(base, "notes.txt")
	if err := os.WriteFile(stray, []byte("keep"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := DefaultConfig()
	cfg.BaseOutputDir = base
	m := NewManager(cfg, nil, nil)
	m.InUse = func(runID string) bool { return runID == "busy_site_20200101_120000" }

	m.SweepNow()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired run directory should be deleted")
	}
	for _, p := range []string{fresh, inUse, stray} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should survive the sweep: %v", p, err)
		}
	}

	stats := m.GetStats()
	if stats.TotalDirsDeleted != 1 {
		t.Errorf("TotalDirsDeleted = %d, want 1", stats.TotalDirsDeleted)
	}
	if stats.LastSweepTime.IsZero() {
		t.Error("LastSweepTime should be set")
	}
}

func TestSweepFallsBackToModTime(t *testing.T) {
	base := t.TempDir()
	odd := mkRunDir(t, base, "no-timestamp-here")
	ancient := time.Now().AddDate(0, 0, -90)
	if err := os.Chtimes(odd, ancient, ancient); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cfg := DefaultConfig()
	cfg.BaseOutputDir = base
	m := NewManager(cfg, nil, nil)
	m.SweepNow()

	if _, err := os.Stat(odd); !os.IsNotExist(err) {
		t.Error("directory older than retention by mtime should be deleted")
	}
}

func TestSweepPrunesHistory(t *testing.T) {
	st := store.NewMemoryStore()
	oldAt := time.Now().AddDate(0, 0, -60)
	recent := time.Now()
	records := []*models.RunRecord{
		{ID: "a", RunID: "old_20200101_000000", Status: models.RunStatusCompleted, CreatedAt: oldAt},
		{ID: "b", RunID: "new_20300101_000000", Status: models.RunStatusCompleted, CreatedAt: recent},
	}
	for _, rec := range records {
		if err := st.CreateRun(rec); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	cfg := DefaultConfig()
	m := NewManager(cfg, st, nil)
	m.SweepNow()

	runs, err := st.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "b" {
		t.Errorf("expected only the recent record to survive, got %+v", runs)
	}
	if m.GetStats().TotalRecordsPruned != 1 {
		t.Errorf("TotalRecordsPruned = %d, want 1", m.GetStats().TotalRecordsPruned)
	}
}

func TestVacuumNow(t *testing.T) {
	m := NewManager(DefaultConfig(), store.NewMemoryStore(), nil)
	m.VacuumNow()
	if m.GetStats().TotalVacuumRuns != 1 {
		t.Errorf("TotalVacuumRuns = %d, want 1", m.GetStats().TotalVacuumRuns)
	}
}

func TestStartDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	m := NewManager(cfg, nil, nil)
	m.Start()
	m.Stop()
}

func TestStartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseOutputDir = t.TempDir()
	cfg.InitialDelay = time.Hour
	m := NewManager(cfg, nil, nil)
	m.Start()
	m.Stop()
}
