package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/store"
)

// Collector exposes run metrics in Prometheus text format. Run counts
// come from the history store at scrape time; submission and report
// counters are recorded by the callers that perform those actions.
type Collector struct {
	store     store.Store
	running   func() bool
	startTime time.Time

	mu                 sync.RWMutex
	submitsAccepted    int64
	submitsRejected    int64
	artifactsCollected int64
	reportsWritten     int64
	errorReports       int64
}

// NewCollector creates a new metrics collector. Both arguments may be
// nil; the corresponding metrics are then omitted or zero.
func NewCollector(s store.Store, running func() bool) *Collector {
	return &Collector{
		store:     s,
		running:   running,
		startTime: time.Now(),
	}
}

// RecordSubmissionAccepted increments the accepted-submission counter
func (c *Collector) RecordSubmissionAccepted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitsAccepted++
}

// RecordSubmissionRejected increments the rejected-submission counter
func (c *Collector) RecordSubmissionRejected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitsRejected++
}

// RecordArtifacts adds n to the collected-artifact counter
func (c *Collector) RecordArtifacts(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artifactsCollected += int64(n)
}

// RecordReportWritten increments the written-report counter
func (c *Collector) RecordReportWritten() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reportsWritten++
}

// RecordErrorReport increments the written-error-report counter
func (c *Collector) RecordErrorReport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorReports++
}

// ServeHTTP serves Prometheus-compatible metrics
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	c.mu.RLock()
	accepted := c.submitsAccepted
	rejected := c.submitsRejected
	collected := c.artifactsCollected
	reports := c.reportsWritten
	errReports := c.errorReports
	c.mu.RUnlock()

	// Count runs by status and mode
	runsByStatus := make(map[string]int)
	runsByMode := make(map[string]int)
	totalRuns := 0
	if c.store != nil {
		if runs, err := c.store.ListRuns(0); err == nil {
			totalRuns = len(runs)
			for _, run := range runs {
				runsByStatus[string(run.Status)]++
				if run.Mode != "" {
					runsByMode[string(run.Mode)]++
				}
			}
		}
	}

	// Write metrics in Prometheus format
	fmt.Fprintf(w, "# HELP robotbrowser_uptime_seconds Time since the service started\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_uptime_seconds gauge\n")
	fmt.Fprintf(w, "robotbrowser_uptime_seconds %d\n", int64(time.Since(c.startTime).Seconds()))

	if c.running != nil {
		inFlight := 0
		if c.running() {
			inFlight = 1
		}
		fmt.Fprintf(w, "\n# HELP robotbrowser_run_in_flight Whether a run currently occupies the slot\n")
		fmt.Fprintf(w, "# TYPE robotbrowser_run_in_flight gauge\n")
		fmt.Fprintf(w, "robotbrowser_run_in_flight %d\n", inFlight)
	}

	fmt.Fprintf(w, "\n# HELP robotbrowser_runs_total Total number of recorded runs\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_runs_total gauge\n")
	fmt.Fprintf(w, "robotbrowser_runs_total %d\n", totalRuns)

	fmt.Fprintf(w, "\n# HELP robotbrowser_runs_by_status Number of runs by status\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_runs_by_status gauge\n")
	for status, count := range runsByStatus {
		fmt.Fprintf(w, "robotbrowser_runs_by_status{status=\"%s\"} %d\n", status, count)
	}

	fmt.Fprintf(w, "\n# HELP robotbrowser_runs_by_mode Number of runs by execution mode\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_runs_by_mode gauge\n")
	for mode, count := range runsByMode {
		fmt.Fprintf(w, "robotbrowser_runs_by_mode{mode=\"%s\"} %d\n", mode, count)
	}

	fmt.Fprintf(w, "\n# HELP robotbrowser_submissions_accepted_total Submissions that won the execution slot\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_submissions_accepted_total counter\n")
	fmt.Fprintf(w, "robotbrowser_submissions_accepted_total %d\n", accepted)

	fmt.Fprintf(w, "\n# HELP robotbrowser_submissions_rejected_total Submissions refused because a run was in flight\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_submissions_rejected_total counter\n")
	fmt.Fprintf(w, "robotbrowser_submissions_rejected_total %d\n", rejected)

	fmt.Fprintf(w, "\n# HELP robotbrowser_artifacts_collected_total Screenshots recorded in run manifests\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_artifacts_collected_total counter\n")
	fmt.Fprintf(w, "robotbrowser_artifacts_collected_total %d\n", collected)

	fmt.Fprintf(w, "\n# HELP robotbrowser_reports_written_total HTML reports written\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_reports_written_total counter\n")
	fmt.Fprintf(w, "robotbrowser_reports_written_total %d\n", reports)

	fmt.Fprintf(w, "\n# HELP robotbrowser_error_reports_written_total Error reports written for failed runs\n")
	fmt.Fprintf(w, "# TYPE robotbrowser_error_reports_written_total counter\n")
	fmt.Fprintf(w, "robotbrowser_error_reports_written_total %d\n", errReports)
}
