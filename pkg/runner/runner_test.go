package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/artifacts"
	"github.com/kunnath/RobotBrowser/pkg/executor"
	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

// fakeExecutor stands in for the real agent so tests can script
// availability, results, failures and timing
type fakeExecutor struct {
	available bool
	result    string
	err       error
	panicMsg  string
	started   chan struct{}
	block     chan struct{}
}

func (f *fakeExecutor) Available() bool { return f.available }

func (f *fakeExecutor) Execute(_ context.Context, _ *models.Job, emit func(string)) (string, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result, f.err
}

func newTestRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	if cfg.BaseOutputDir == "" {
		cfg.BaseOutputDir = t.TempDir()
	}
	if cfg.Fallback == nil {
		cfg.Fallback = &executor.Simulated{StepDelay: time.Millisecond}
	}
	if cfg.ScratchPatterns == nil {
		// keep tests away from any real agent temp directories
		cfg.ScratchPatterns = []string{filepath.Join(t.TempDir(), "none_*", "screenshots")}
	}
	return New(cfg)
}

func waitForOutcome(t *testing.T, r *Runner) models.Outcome {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if out, ok := r.PollOutcome(); ok {
			return out
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for outcome")
	return models.Outcome{}
}

func waitNotRunning(t *testing.T, r *Runner) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !r.IsRunning() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for run to finish")
}

func drainStatus(r *Runner) []string {
	var msgs []string
	for {
		ev, ok := r.PollStatus()
		if !ok {
			return msgs
		}
		msgs = append(msgs, ev.Message)
	}
}

func TestPollsAreEmptyBeforeAnyRun(t *testing.T) {
	r := newTestRunner(t, Config{Executor: &fakeExecutor{}})

	if _, ok := r.PollStatus(); ok {
		t.Error("PollStatus should report empty before any run")
	}
	if _, ok := r.PollOutcome(); ok {
		t.Error("PollOutcome should report empty before any run")
	}
	if r.IsRunning() {
		t.Error("IsRunning should be false before any run")
	}
	if r.Current() != nil {
		t.Error("Current should be nil before any run")
	}
}

func TestSubmitRejectsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeExecutor{available: true, result: "done", block: release}
	r := newTestRunner(t, Config{Executor: fake})

	first := models.NewJob("https://example.com", "first task")
	if !r.Submit(first) {
		t.Fatal("first Submit should be accepted")
	}

	second := models.NewJob("https://example.com", "second task")
	if r.Submit(second) {
		t.Fatal("second Submit should be rejected while first is in flight")
	}
	if second.RunID != "" {
		t.Error("rejected Submit must leave the job untouched")
	}

	close(release)
	out := waitForOutcome(t, r)
	if out.Failed() {
		t.Errorf("first run should still complete normally, got error %q", out.Error)
	}

	third := models.NewJob("https://example.com", "third task")
	if !r.Submit(third) {
		t.Error("Submit should be accepted again after the outcome is consumed")
	}
	waitForOutcome(t, r)
}

func TestRunDirectoryCreatedEagerly(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeExecutor{available: true, result: "done", block: release}
	r := newTestRunner(t, Config{Executor: fake})
	defer func() { close(release); waitForOutcome(t, r) }()

	job := models.NewJob("https://example.com", "task")
	if !r.Submit(job) {
		t.Fatal("Submit rejected")
	}

	if job.RunID == "" || !strings.HasPrefix(job.RunID, "example_com_") {
		t.Errorf("RunID = %q, want example_com_ prefix", job.RunID)
	}
	if _, err := os.Stat(filepath.Join(job.RunDir, artifacts.DirName)); err != nil {
		t.Errorf("run directory with screenshots/ should exist right after Submit: %v", err)
	}
}

func TestSimulatedEndToEnd(t *testing.T) {
	r := newTestRunner(t, Config{Executor: executor.NewAgent("no-such-agent-binary-xyz")})

	job := models.NewJob("https://example.com", "browse the site")
	if !r.Submit(job) {
		t.Fatal("Submit rejected")
	}

	out := waitForOutcome(t, r)
	if out.Failed() {
		t.Fatalf("expected success, got failure: %s", out.Error)
	}
	if out.Mode != models.ModeSimulated {
		t.Errorf("Mode = %q, want simulated", out.Mode)
	}
	if len(out.Artifacts) != 4 {
		t.Errorf("expected 4 placeholder artifacts, got %d", len(out.Artifacts))
	}
	for _, a := range out.Artifacts {
		if a.Authentic {
			t.Errorf("placeholder %s should not be authentic", a.Name)
		}
	}
	if out.ReportPath == "" || out.SidecarPath == "" {
		t.Fatalf("report locations missing: %q %q", out.ReportPath, out.SidecarPath)
	}
	for _, p := range []string{out.ReportPath, out.SidecarPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should exist: %v", p, err)
		}
	}
	if !strings.Contains(out.Result, "Demo Automation Results:") {
		t.Errorf("unexpected result text: %q", out.Result)
	}
}

func TestFailureProducesErrorReport(t *testing.T) {
	fake := &fakeExecutor{available: true, err: errors.New("browser exploded")}
	r := newTestRunner(t, Config{Executor: fake})

	job := models.NewJob("https://example.com", "task that fails")
	if !r.Submit(job) {
		t.Fatal("Submit rejected")
	}

	out := waitForOutcome(t, r)
	if !out.Failed() {
		t.Fatal("expected failure outcome")
	}
	if !strings.Contains(out.Error, "browser exploded") {
		t.Errorf("Error = %q, want the executor's message", out.Error)
	}
	if out.ReportPath == "" {
		t.Fatal("failure after directory creation should carry an error report location")
	}
	html, err := os.ReadFile(out.ReportPath)
	if err != nil {
		t.Fatalf("error report unreadable: %v", err)
	}
	if !strings.Contains(string(html), "browser exploded") {
		t.Error("error report should contain the error text")
	}
}

func TestPanicBecomesFailureOutcome(t *testing.T) {
	fake := &fakeExecutor{available: true, panicMsg: "wild panic"}
	r := newTestRunner(t, Config{Executor: fake})

	if !r.Submit(models.NewJob("https://example.com", "task")) {
		t.Fatal("Submit rejected")
	}

	out := waitForOutcome(t, r)
	if !out.Failed() {
		t.Fatal("panic should surface as a failure outcome")
	}
	if !strings.Contains(out.Error, "wild panic") {
		t.Errorf("Error = %q, want the panic value", out.Error)
	}
	waitNotRunning(t, r)
}

func TestOutcomeEnqueuedBeforeSlotClears(t *testing.T) {
	r := newTestRunner(t, Config{Executor: &fakeExecutor{available: true, result: "ok"}})

	if !r.Submit(models.NewJob("https://example.com", "task")) {
		t.Fatal("Submit rejected")
	}
	waitNotRunning(t, r)

	if _, ok := r.PollOutcome(); !ok {
		t.Error("IsRunning() == false must guarantee the outcome is already enqueued")
	}
}

func TestProgressHistoryCompleteAndOrdered(t *testing.T) {
	r := newTestRunner(t, Config{
		Executor:     executor.NewAgent("no-such-agent-binary-xyz"),
		StatusBuffer: 256,
	})

	if !r.Submit(models.NewJob("https://example.com", "task")) {
		t.Fatal("Submit rejected")
	}
	waitNotRunning(t, r)

	msgs := drainStatus(r)
	if len(msgs) == 0 {
		t.Fatal("expected progress history")
	}
	if msgs[0] != "📁 Creating report directory..." {
		t.Errorf("first event = %q", msgs[0])
	}

	lastStep := -1
	for _, m := range msgs {
		if strings.HasPrefix(m, "Step ") {
			step := int(m[5] - '0')
			if step <= lastStep {
				t.Errorf("simulated steps out of order: %q after step %d", m, lastStep)
			}
			lastStep = step
		}
	}
	if lastStep != 6 {
		t.Errorf("expected all 6 simulated steps, last seen %d", lastStep)
	}

	if msgs[len(msgs)-1] != "✅ Report generation completed!" {
		t.Errorf("last event = %q", msgs[len(msgs)-1])
	}

	if _, ok := r.PollOutcome(); !ok {
		t.Error("outcome should be available after draining status")
	}
}

func TestStatusOverflowKeepsNewest(t *testing.T) {
	r := newTestRunner(t, Config{
		Executor:     executor.NewAgent("no-such-agent-binary-xyz"),
		StatusBuffer: 4,
	})

	if !r.Submit(models.NewJob("https://example.com", "task")) {
		t.Fatal("Submit rejected")
	}
	waitNotRunning(t, r)

	msgs := drainStatus(r)
	if len(msgs) > 4 {
		t.Fatalf("buffer of 4 held %d events", len(msgs))
	}
	if len(msgs) == 0 || msgs[len(msgs)-1] != "✅ Report generation completed!" {
		t.Errorf("overflow should discard oldest events, kept: %v", msgs)
	}
}

func TestSynthesisFailureDoesNotMaskSuccess(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fake := &fakeExecutor{available: true, result: "task ok", started: started, block: release}
	r := newTestRunner(t, Config{Executor: fake})

	job := models.NewJob("https://example.com", "task")
	job.CopyScratch = false
	if !r.Submit(job) {
		t.Fatal("Submit rejected")
	}

	// Remove the run directory while the task is still executing so
	// report writing has nowhere to land.
	<-started
	if err := os.RemoveAll(job.RunDir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	close(release)

	out := waitForOutcome(t, r)
	if out.Failed() {
		t.Fatalf("synthesis failure must not fail the run, got error %q", out.Error)
	}
	if out.ReportPath != "" || out.SidecarPath != "" {
		t.Errorf("report locations should be empty on synthesis failure, got %q %q", out.ReportPath, out.SidecarPath)
	}
	if out.Result != "task ok" {
		t.Errorf("Result = %q, want the executor result", out.Result)
	}
}

func TestScratchCopyFeedsManifest(t *testing.T) {
	scratchBase := t.TempDir()
	scratch := filepath.Join(scratchBase, "browser_use_agent_test", "screenshots")
	if err := os.MkdirAll(scratch, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, "capture.png"), make([]byte, 2048), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := newTestRunner(t, Config{
		Executor:        &fakeExecutor{available: true, result: "ok"},
		ScratchPatterns: []string{filepath.Join(scratchBase, "browser_use_agent_*", "screenshots")},
	})

	if !r.Submit(models.NewJob("https://example.com", "task")) {
		t.Fatal("Submit rejected")
	}
	out := waitForOutcome(t, r)
	if out.Failed() {
		t.Fatalf("unexpected failure: %s", out.Error)
	}

	if len(out.Artifacts) != 1 || out.Artifacts[0].Name != "capture.png" {
		t.Fatalf("expected copied capture.png in manifest, got %+v", out.Artifacts)
	}
	if !out.Artifacts[0].Authentic {
		t.Error("2KB capture should count as authentic")
	}

	msgs := drainStatus(r)
	var perFile, total bool
	for _, m := range msgs {
		switch m {
		case "📸 Copied: capture.png":
			perFile = true
		case "✅ Successfully copied 1 screenshots":
			total = true
		}
	}
	if !perFile {
		t.Errorf("per-file copy line missing from %v", msgs)
	}
	if !total {
		t.Errorf("copy summary line missing from %v", msgs)
	}
}

func TestScratchCopyDisabledPerJob(t *testing.T) {
	scratchBase := t.TempDir()
	scratch := filepath.Join(scratchBase, "browser_use_agent_test", "screenshots")
	if err := os.MkdirAll(scratch, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, "capture.png"), make([]byte, 2048), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := newTestRunner(t, Config{
		Executor:        &fakeExecutor{available: true, result: "ok"},
		ScratchPatterns: []string{filepath.Join(scratchBase, "browser_use_agent_*", "screenshots")},
	})

	job := models.NewJob("https://example.com", "task")
	job.CopyScratch = false
	if !r.Submit(job) {
		t.Fatal("Submit rejected")
	}
	out := waitForOutcome(t, r)
	if len(out.Artifacts) != 0 {
		t.Errorf("scratch copy disabled, manifest should be empty, got %+v", out.Artifacts)
	}
}

func TestCollectArtifactsRescans(t *testing.T) {
	r := newTestRunner(t, Config{Executor: executor.NewAgent("no-such-agent-binary-xyz")})

	job := models.NewJob("https://example.com", "task")
	if !r.Submit(job) {
		t.Fatal("Submit rejected")
	}
	waitForOutcome(t, r)

	first := r.CollectArtifacts()
	if len(first) != 4 {
		t.Fatalf("expected 4 artifacts, got %d", len(first))
	}

	extra := filepath.Join(job.RunDir, artifacts.DirName, "05_extra.png")
	if err := os.WriteFile(extra, make([]byte, 2048), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := r.CollectArtifacts()
	if len(second) != 5 {
		t.Errorf("rescan should see the new file, got %d entries", len(second))
	}
}

func TestRunHistoryRecorded(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRunner(t, Config{
		Executor: executor.NewAgent("no-such-agent-binary-xyz"),
		Store:    st,
	})

	if !r.Submit(models.NewJob("https://example.com", "remember me")) {
		t.Fatal("Submit rejected")
	}
	waitForOutcome(t, r)
	waitNotRunning(t, r)

	runs, err := st.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(runs))
	}
	rec := runs[0]
	if rec.Status != models.RunStatusCompleted {
		t.Errorf("Status = %q, want completed", rec.Status)
	}
	if rec.Mode != models.ModeSimulated {
		t.Errorf("Mode = %q, want simulated", rec.Mode)
	}
	if rec.Task != "remember me" {
		t.Errorf("Task = %q", rec.Task)
	}
	if rec.ReportPath == "" {
		t.Error("ReportPath should be recorded")
	}
	if rec.StartedAt == nil || rec.CompletedAt == nil {
		t.Error("StartedAt and CompletedAt should be recorded")
	}
}
