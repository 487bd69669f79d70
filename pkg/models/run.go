package models

import (
	"time"
)

// RunStatus represents the lifecycle state of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunMode distinguishes a real automation run from the simulated fallback
type RunMode string

const (
	ModeReal      RunMode = "real"
	ModeSimulated RunMode = "simulated"
)

// Job represents one submitted unit of browser-automation work.
// A Job is immutable after submission; RunID and RunDir are assigned
// by the runner when the submission is accepted.
type Job struct {
	TargetURL   string    `json:"target_url"`
	Task        string    `json:"task"`
	Credential  string    `json:"-"`
	Headless    bool      `json:"headless"`
	CopyScratch bool      `json:"copy_scratch"`
	RunID       string    `json:"run_id,omitempty"`
	RunDir      string    `json:"run_dir,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewJob creates a Job with default settings for the given target
func NewJob(targetURL, task string) *Job {
	return &Job{
		TargetURL:   targetURL,
		Task:        task,
		Headless:    true,
		CopyScratch: true,
		CreatedAt:   time.Now(),
	}
}

// ProgressEvent is a human-readable status line emitted during a run.
// Events are transient: consumed once by the poller, not persisted.
type ProgressEvent struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// ArtifactEntry represents one collected screenshot file
type ArtifactEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`     // absolute
	RelPath    string    `json:"rel_path"` // relative to the run directory
	CapturedAt time.Time `json:"captured_at"`
	SizeBytes  int64     `json:"size_bytes"`
	Authentic  bool      `json:"authentic"` // false for placeholder/demo images
}

// Outcome represents the terminal result of a run. Exactly one Outcome
// is produced per accepted Job.
type Outcome struct {
	RunID       string          `json:"run_id"`
	Status      RunStatus       `json:"status"` // completed or failed
	Mode        RunMode         `json:"mode,omitempty"`
	Result      string          `json:"result,omitempty"`
	Artifacts   []ArtifactEntry `json:"artifacts,omitempty"`
	ReportPath  string          `json:"report_path,omitempty"`
	SidecarPath string          `json:"sidecar_path,omitempty"`
	Error       string          `json:"error,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Failed reports whether the run ended in failure
func (o Outcome) Failed() bool {
	return o.Status == RunStatusFailed
}

// RunRecord is the persisted history entry for one run
type RunRecord struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	URL         string     `json:"url"`
	Task        string     `json:"task"`
	Status      RunStatus  `json:"status"`
	Mode        RunMode    `json:"mode,omitempty"`
	Result      string     `json:"result,omitempty"`
	ReportPath  string     `json:"report_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
