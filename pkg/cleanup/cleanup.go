package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/logging"
)

// Config defines retention policy and sweep intervals
type Config struct {
	Enabled        bool
	RetentionDays  int
	SweepInterval  time.Duration
	VacuumInterval time.Duration
	InitialDelay   time.Duration
	BaseOutputDir  string
}

// DefaultConfig returns sensible defaults for retention
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		RetentionDays:  30,
		SweepInterval:  24 * time.Hour,
		VacuumInterval: 7 * 24 * time.Hour,
		InitialDelay:   5 * time.Minute,
	}
}

// Store interface for history maintenance
type Store interface {
	PruneBefore(cutoff time.Time) (int, error)
	Vacuum() error
}

// Manager deletes expired run directories and prunes run history on a
// schedule. Both sweeps are best-effort; individual failures are logged
// and skipped.
type Manager struct {
	config Config
	store  Store
	log    *logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// InUse lets the owner protect a run directory from deletion while
	// a run still writes into it
	InUse func(runID string) bool

	mu    sync.RWMutex
	stats Stats
}

// Stats tracks sweep operations
type Stats struct {
	LastSweepTime      time.Time
	LastVacuumTime     time.Time
	TotalDirsDeleted   int64
	TotalRecordsPruned int64
	TotalVacuumRuns    int64
	LastSweepDuration  time.Duration
	LastVacuumDuration time.Duration
}

// NewManager creates a new retention manager
func NewManager(config Config, store Store, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewLogger(logging.INFO)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config: config,
		store:  store,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the periodic sweeps
func (m *Manager) Start() {
	if !m.config.Enabled {
		m.log.Info("retention manager disabled")
		return
	}

	m.log.Info("starting retention manager", map[string]interface{}{
		"retention_days": m.config.RetentionDays,
		"interval":       m.config.SweepInterval.String(),
	})

	m.wg.Add(2)
	go m.sweepLoop()
	go m.vacuumLoop()
}

// Stop gracefully stops the retention manager
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.log.Info("retention manager stopped")
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	// Initial sweep after a short delay so startup is not slowed down
	select {
	case <-m.ctx.Done():
		return
	case <-time.After(m.config.InitialDelay):
		m.sweep()
	}

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) vacuumLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.VacuumInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.vacuum()
		}
	}
}

// sweep deletes run directories older than the retention period, then
// prunes matching history records
func (m *Manager) sweep() {
	startTime := time.Now()
	cutoff := time.Now().AddDate(0, 0, -m.config.RetentionDays)
	deleted := 0
	pruned := 0

	if m.config.BaseOutputDir != "" {
		entries, err := os.ReadDir(m.config.BaseOutputDir)
		if err != nil && !os.IsNotExist(err) {
			m.log.Warn("retention sweep cannot read output directory", map[string]interface{}{"dir": m.config.BaseOutputDir, "error": err.Error()})
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if m.InUse != nil && m.InUse(name) {
				continue
			}
			if m.runTime(entry).Before(cutoff) {
				if err := os.RemoveAll(filepath.Join(m.config.BaseOutputDir, name)); err != nil {
					m.log.Warn("failed to delete expired run directory", map[string]interface{}{"dir": name, "error": err.Error()})
					continue
				}
				deleted++
			}
		}
	}

	if m.store != nil {
		n, err := m.store.PruneBefore(cutoff)
		if err != nil {
			m.log.Warn("history prune failed", map[string]interface{}{"error": err.Error()})
		} else {
			pruned = n
		}
	}

	duration := time.Since(startTime)

	m.mu.Lock()
	m.stats.LastSweepTime = time.Now()
	m.stats.LastSweepDuration = duration
	m.stats.TotalDirsDeleted += int64(deleted)
	m.stats.TotalRecordsPruned += int64(pruned)
	m.mu.Unlock()

	m.log.Info("retention sweep complete", map[string]interface{}{
		"dirs_deleted":   deleted,
		"records_pruned": pruned,
		"duration":       duration.String(),
	})
}

// runTime extracts the run's timestamp from its directory name, falling
// back to the directory modification time for names that do not carry
// one
func (m *Manager) runTime(entry os.DirEntry) time.Time {
	name := entry.Name()
	parts := strings.Split(name, "_")
	if len(parts) >= 3 {
		stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
		if ts, err := time.ParseInLocation("20060102_150405", stamp, time.Local); err == nil {
			return ts
		}
	}
	if info, err := entry.Info(); err == nil {
		return info.ModTime()
	}
	return time.Now()
}

func (m *Manager) vacuum() {
	if m.store == nil {
		return
	}
	startTime := time.Now()

	if err := m.store.Vacuum(); err != nil {
		m.log.Warn("database vacuum failed", map[string]interface{}{"error": err.Error()})
		return
	}

	duration := time.Since(startTime)

	m.mu.Lock()
	m.stats.LastVacuumTime = time.Now()
	m.stats.LastVacuumDuration = duration
	m.stats.TotalVacuumRuns++
	m.mu.Unlock()

	m.log.Info("database vacuum complete", map[string]interface{}{"duration": duration.String()})
}

// SweepNow triggers an immediate sweep
func (m *Manager) SweepNow() {
	m.sweep()
}

// VacuumNow triggers an immediate vacuum
func (m *Manager) VacuumNow() {
	m.vacuum()
}

// GetStats returns current sweep statistics
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}
