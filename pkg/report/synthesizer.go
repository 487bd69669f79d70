// Package report renders run reports. Every run produces a rendered HTML
// document plus a machine-readable JSON sidecar, written together into the
// run directory; failed runs get a minimal error report instead.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// SidecarName is the fixed file name of the JSON sidecar inside a run directory
const SidecarName = "report_data.json"

// Sidecar mirrors the rendered report in machine-readable form
type Sidecar struct {
	ReportName      string                 `json:"report_name"`
	URL             string                 `json:"url"`
	TaskDescription string                 `json:"task_description"`
	Result          string                 `json:"result"`
	Timestamp       string                 `json:"timestamp"`
	Screenshots     []models.ArtifactEntry `json:"screenshots"`
	ReportPath      string                 `json:"report_path"`
	ReportDir       string                 `json:"report_dir"`
	Mode            models.RunMode         `json:"mode"`
}

// Synthesizer renders reports deterministically: with a fixed clock,
// identical inputs produce byte-identical output
type Synthesizer struct {
	now func() time.Time
}

// New creates a Synthesizer using the wall clock
func New() *Synthesizer {
	return &Synthesizer{now: time.Now}
}

// NewWithClock creates a Synthesizer with an injected timestamp source
func NewWithClock(now func() time.Time) *Synthesizer {
	return &Synthesizer{now: now}
}

// Synthesize writes the rendered report ({run_id}.html) and its sidecar
// into runDir and returns both locations. The gallery preserves manifest
// order. Writes are atomic from the caller's point of view: on any error
// neither file is left behind and both locations come back empty.
func (s *Synthesizer) Synthesize(job *models.Job, result string, manifest []models.ArtifactEntry, runDir string, mode models.RunMode) (string, string, error) {
	if job.RunID == "" {
		return "", "", fmt.Errorf("job has no run identifier")
	}

	reportPath := filepath.Join(runDir, job.RunID+".html")
	sidecarPath := filepath.Join(runDir, SidecarName)
	now := s.now()

	html, err := s.renderReport(job, result, manifest, runDir, mode, now)
	if err != nil {
		return "", "", fmt.Errorf("failed to render report: %w", err)
	}

	sidecar := Sidecar{
		ReportName:      job.RunID,
		URL:             job.TargetURL,
		TaskDescription: job.Task,
		Result:          result,
		Timestamp:       now.Format(time.RFC3339),
		Screenshots:     manifest,
		ReportPath:      reportPath,
		ReportDir:       runDir,
		Mode:            mode,
	}
	sidecarJSON, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode sidecar: %w", err)
	}

	if err := writeFileAtomic(reportPath, html); err != nil {
		return "", "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := writeFileAtomic(sidecarPath, sidecarJSON); err != nil {
		os.Remove(reportPath)
		return "", "", fmt.Errorf("failed to write sidecar: %w", err)
	}
	return reportPath, sidecarPath, nil
}

// WriteErrorReport writes the degraded failure report
// (error_report_{timestamp}.html). It needs only the submission fields and
// the error text, so it works even when the run produced nothing else.
func (s *Synthesizer) WriteErrorReport(job *models.Job, errText, runDir string) (string, error) {
	now := s.now()
	path := filepath.Join(runDir, "error_report_"+now.Format("20060102_150405")+".html")

	var buf bytes.Buffer
	data := struct {
		URL, Task, Error, Time string
	}{job.TargetURL, job.Task, errText, now.Format("2006-01-02 15:04:05")}
	if err := errorTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render error report: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to write error report: %w", err)
	}
	return path, nil
}

func (s *Synthesizer) renderReport(job *models.Job, result string, manifest []models.ArtifactEntry, runDir string, mode models.RunMode, now time.Time) ([]byte, error) {
	if result == "" {
		result = "Task completed successfully!"
	}

	data := reportData{
		ReportName:     job.RunID,
		URL:            job.TargetURL,
		Task:           job.Task,
		Result:         result,
		GeneratedOn:    now.Format("January 2, 2006 at 3:04 PM"),
		ExecutedAt:     now.Format("2006-01-02 15:04:05"),
		BadgeText:      "REAL AUTOMATION",
		BadgeColor:     "#28a745",
		BadgeTextColor: "white",
		RunDir:         runDir,
	}
	if mode == models.ModeSimulated {
		data.BadgeText = "DEMO MODE"
		data.BadgeColor = "#ffc107"
		data.BadgeTextColor = "#212529"
	}

	for i, entry := range manifest {
		data.Shots = append(data.Shots, galleryShot{
			Index:    i + 1,
			Name:     entry.Name,
			RelPath:  entry.RelPath,
			Captured: entry.CapturedAt.Format("15:04:05"),
			Size:     sizeLabel(entry.SizeBytes),
			Source:   sourceLabel(entry.Authentic),
		})
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sizeLabel(size int64) string {
	if size > 0 {
		return fmt.Sprintf("%d KB", size/1024)
	}
	return "Demo"
}

func sourceLabel(authentic bool) string {
	if authentic {
		return "Browser Automation"
	}
	return "Demo Image"
}

// LoadSidecar reads a previously written sidecar document
func LoadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar %s: %w", path, err)
	}
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar %s: %w", path, err)
	}
	return &sc, nil
}

// writeFileAtomic writes via a temp file and rename so a reader never
// observes a partially written document
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
