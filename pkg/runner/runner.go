// Package runner owns the single execution slot for browser-automation
// runs. A submission is accepted only when no run is in flight; the run
// then proceeds on a background goroutine that reports through two
// one-directional queues (progress and outcome) drained by non-blocking
// polls. Whatever happens during execution, exactly one Outcome is
// enqueued and the slot is released.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kunnath/RobotBrowser/pkg/artifacts"
	"github.com/kunnath/RobotBrowser/pkg/executor"
	"github.com/kunnath/RobotBrowser/pkg/logging"
	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/report"
	"github.com/kunnath/RobotBrowser/pkg/runid"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

// DefaultBaseOutputDir is where run directories are created unless
// configured otherwise
const DefaultBaseOutputDir = "automation_reports"

const (
	defaultStatusBuffer = 64
	outcomeBuffer       = 16
)

// Config wires a Runner's collaborators. Every field is optional; zero
// values fall back to production defaults.
type Config struct {
	BaseOutputDir   string
	AgentCommand    string
	StatusBuffer    int
	ScratchPatterns []string
	Executor        executor.Executor
	Fallback        executor.Executor
	Synthesizer     *report.Synthesizer
	Store           store.Store
	Logger          *logging.Logger
	Clock           func() time.Time
}

// Runner is the single-slot run orchestrator. Instances are independent:
// nothing here is process-global, so callers own exactly the runners they
// construct.
type Runner struct {
	baseDir  string
	patterns []string
	real     executor.Executor
	fallback executor.Executor
	synth    *report.Synthesizer
	store    store.Store
	log      *logging.Logger
	clock    func() time.Time

	statusCh  chan models.ProgressEvent
	outcomeCh chan models.Outcome

	mu      sync.RWMutex
	running bool
	current *models.Job
}

// New creates a Runner from the given configuration
func New(cfg Config) *Runner {
	if cfg.BaseOutputDir == "" {
		cfg.BaseOutputDir = DefaultBaseOutputDir
	}
	if cfg.StatusBuffer <= 0 {
		cfg.StatusBuffer = defaultStatusBuffer
	}
	if cfg.Executor == nil {
		cfg.Executor = executor.NewAgent(cfg.AgentCommand)
	}
	if cfg.Fallback == nil {
		cfg.Fallback = executor.NewSimulated()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Synthesizer == nil {
		cfg.Synthesizer = report.NewWithClock(cfg.Clock)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewLogger(logging.INFO)
	}

	return &Runner{
		baseDir:   cfg.BaseOutputDir,
		patterns:  cfg.ScratchPatterns,
		real:      cfg.Executor,
		fallback:  cfg.Fallback,
		synth:     cfg.Synthesizer,
		store:     cfg.Store,
		log:       cfg.Logger,
		clock:     cfg.Clock,
		statusCh:  make(chan models.ProgressEvent, cfg.StatusBuffer),
		outcomeCh: make(chan models.Outcome, outcomeBuffer),
	}
}

// Submit accepts the job if the execution slot is free and launches it in
// the background. The run directory is allocated (and created) before
// Submit returns so the caller immediately knows where output will land.
// Returns false, with no side effects, while another run is in flight.
func (r *Runner) Submit(job *models.Job) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}

	now := r.clock()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.RunID = runid.Allocate(job.TargetURL, now)
	job.RunDir = filepath.Join(r.baseDir, job.RunID)

	r.running = true
	r.current = job
	r.mu.Unlock()

	r.emit("📁 Creating report directory...")
	if err := os.MkdirAll(filepath.Join(job.RunDir, artifacts.DirName), 0755); err != nil {
		// The background pass retries; if it fails again the run ends as
		// a Failure with the error preserved.
		r.log.Warn("run directory creation failed", map[string]interface{}{"dir": job.RunDir, "error": err.Error()})
	} else {
		r.emit(fmt.Sprintf("📁 Report directory created: %s", job.RunID))
	}

	r.recordSubmission(job, now)
	r.log.Info("run accepted", map[string]interface{}{"run_id": job.RunID, "url": job.TargetURL})

	go r.execute(job)
	return true
}

// PollStatus returns the oldest unconsumed progress event. Never blocks.
func (r *Runner) PollStatus() (models.ProgressEvent, bool) {
	select {
	case ev := <-r.statusCh:
		return ev, true
	default:
		return models.ProgressEvent{}, false
	}
}

// PollOutcome returns the oldest unconsumed terminal outcome. Never blocks.
func (r *Runner) PollOutcome() (models.Outcome, bool) {
	select {
	case out := <-r.outcomeCh:
		return out, true
	default:
		return models.Outcome{}, false
	}
}

// IsRunning reports whether a run occupies the slot. It turns false only
// after the run's Outcome has been enqueued, so a caller observing false
// can drain both queues and see the complete history.
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Current returns a snapshot of the most recently accepted job, or nil
// before the first submission
func (r *Runner) Current() *models.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	snapshot := *r.current
	return &snapshot
}

// CollectArtifacts rescans the current run's screenshot directory and
// returns a fresh manifest. Idempotent: it reads only the filesystem, so
// it can back re-synthesis without re-running the task.
func (r *Runner) CollectArtifacts() []models.ArtifactEntry {
	job := r.Current()
	if job == nil || job.RunDir == "" {
		return nil
	}
	return artifacts.Collect(filepath.Join(job.RunDir, artifacts.DirName))
}

// execute drives one run to its terminal state. The history write, the
// outcome enqueue and the slot release happen unconditionally, in that
// order: a caller that observes the outcome can immediately read the
// finished history record, and an idle slot means both are done.
func (r *Runner) execute(job *models.Job) {
	outcome := r.run(job)

	r.recordCompletion(job, outcome)
	r.pushOutcome(outcome)

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	if outcome.Failed() {
		r.log.Error("run failed", map[string]interface{}{"run_id": job.RunID, "error": outcome.Error})
	} else {
		r.log.Info("run completed", map[string]interface{}{"run_id": job.RunID, "mode": string(outcome.Mode)})
	}
}

// run performs the execution sequence and converts every failure,
// panics included, into a Failure outcome. It never lets a fault escape
// to the goroutine boundary.
func (r *Runner) run(job *models.Job) (out models.Outcome) {
	dirReady := false
	defer func() {
		if rec := recover(); rec != nil {
			out = r.fail(job, fmt.Sprintf("panic during run: %v", rec), dirReady)
		}
	}()

	shotsDir := filepath.Join(job.RunDir, artifacts.DirName)
	if err := os.MkdirAll(shotsDir, 0755); err != nil {
		return r.fail(job, fmt.Sprintf("failed to create run directory: %v", err), false)
	}
	dirReady = true

	mode := models.ModeSimulated
	agent := r.fallback
	r.emit("🔧 Checking browser automation agent...")
	if r.real != nil && r.real.Available() {
		mode = models.ModeReal
		agent = r.real
		r.emit("🔧 Initializing AI agent...")
		r.emit("🌐 Starting browser with screenshot capture...")
		r.emit("⚡ Executing browser automation...")
	} else {
		r.emit("🔧 Running in demo mode (automation agent not available)...")
	}

	result, err := agent.Execute(context.Background(), job, r.emit)
	if err != nil {
		return r.fail(job, err.Error(), dirReady)
	}

	if mode == models.ModeReal && job.CopyScratch {
		r.importScratch(shotsDir)
	}

	r.emit("📊 Generating comprehensive report...")
	manifest := artifacts.Collect(shotsDir)
	reportPath, sidecarPath, synthErr := r.synth.Synthesize(job, result, manifest, job.RunDir, mode)
	if synthErr != nil {
		// The task itself succeeded; report only the missing locations.
		r.emit(fmt.Sprintf("❌ Report generation failed: %v", synthErr))
	} else {
		r.emit("✅ Report generation completed!")
	}

	return models.Outcome{
		RunID:       job.RunID,
		Status:      models.RunStatusCompleted,
		Mode:        mode,
		Result:      result,
		Artifacts:   manifest,
		ReportPath:  reportPath,
		SidecarPath: sidecarPath,
		CompletedAt: r.clock(),
	}
}

// fail runs the degraded path: best-effort screenshot rescue, best-effort
// error report, then a Failure outcome. Nothing in here is allowed to
// abort the sequence.
func (r *Runner) fail(job *models.Job, msg string, dirReady bool) models.Outcome {
	r.emit(fmt.Sprintf("❌ Error: %s", msg))

	reportPath := ""
	if dirReady {
		if job.CopyScratch {
			r.importScratch(filepath.Join(job.RunDir, artifacts.DirName))
		}
		if p, err := r.synth.WriteErrorReport(job, msg, job.RunDir); err == nil {
			reportPath = p
		} else {
			r.log.Warn("error report write failed", map[string]interface{}{"run_id": job.RunID, "error": err.Error()})
		}
	}

	return models.Outcome{
		RunID:       job.RunID,
		Status:      models.RunStatusFailed,
		Error:       msg,
		ReportPath:  reportPath,
		CompletedAt: r.clock(),
	}
}

// importScratch copies screenshots the agent left in its temp location.
// Best-effort per file: a failed copy becomes a progress line, never a
// run failure, and the files after it still arrive.
func (r *Runner) importScratch(shotsDir string) {
	r.emit("📸 Searching for and copying screenshots...")
	copied, err := artifacts.ImportScratch(shotsDir, r.patterns...)
	for _, name := range copied {
		r.emit(fmt.Sprintf("📸 Copied: %s", name))
	}
	if err != nil {
		r.emit(fmt.Sprintf("❌ Screenshot copy error: %v", err))
	}
	switch {
	case len(copied) > 0:
		r.emit(fmt.Sprintf("✅ Successfully copied %d screenshots", len(copied)))
	case err == nil:
		r.emit("📸 No temp screenshots to copy (normal for demo mode)")
	}
}

// emit pushes a progress event without ever blocking the run: when the
// queue is full the oldest entry is discarded to make room
func (r *Runner) emit(msg string) {
	ev := models.ProgressEvent{Message: msg, Time: r.clock()}
	for {
		select {
		case r.statusCh <- ev:
			return
		default:
			select {
			case <-r.statusCh:
			default:
			}
		}
	}
}

// pushOutcome enqueues the terminal outcome with the same no-block policy
// as emit. The buffer only fills when a caller abandons consumed runs.
func (r *Runner) pushOutcome(out models.Outcome) {
	for {
		select {
		case r.outcomeCh <- out:
			return
		default:
			select {
			case <-r.outcomeCh:
			default:
			}
		}
	}
}

func (r *Runner) recordSubmission(job *models.Job, now time.Time) {
	if r.store == nil {
		return
	}
	rec := &models.RunRecord{
		ID:        uuid.New().String(),
		RunID:     job.RunID,
		URL:       job.TargetURL,
		Task:      job.Task,
		Status:    models.RunStatusRunning,
		CreatedAt: job.CreatedAt,
		StartedAt: &now,
	}
	if err := r.store.CreateRun(rec); err != nil {
		r.log.Warn("failed to record submission", map[string]interface{}{"run_id": job.RunID, "error": err.Error()})
	}
}

func (r *Runner) recordCompletion(job *models.Job, out models.Outcome) {
	if r.store == nil {
		return
	}
	now := out.CompletedAt
	rec := &models.RunRecord{
		RunID:       job.RunID,
		Status:      out.Status,
		Mode:        out.Mode,
		Result:      out.Result,
		ReportPath:  out.ReportPath,
		Error:       out.Error,
		CompletedAt: &now,
	}
	if err := r.store.FinishRun(rec); err != nil {
		r.log.Warn("failed to record completion", map[string]interface{}{"run_id": job.RunID, "error": err.Error()})
	}
}
