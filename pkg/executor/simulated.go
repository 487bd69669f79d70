package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kunnath/RobotBrowser/pkg/models"
)

// DefaultStepDelay is the pause between simulated steps
const DefaultStepDelay = 2 * time.Second

// simulatedSteps is the fixed script every simulated run walks through
var simulatedSteps = []string{
	"🌐 Navigating to target URL...",
	"📖 Analyzing page content...",
	"🔍 Looking for interactive elements...",
	"⚡ Performing requested actions...",
	"📸 Capturing screenshots...",
	"✅ Task execution completed!",
}

// placeholderNames are the demo screenshots a simulated run leaves behind
var placeholderNames = []string{
	"01_page_load.png",
	"02_navigation.png",
	"03_interaction.png",
	"04_results.png",
}

// placeholderPNG is a 1x1 transparent PNG. Small on purpose: anything this
// size stays below the authenticity threshold and reports as a demo image.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xDB, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

// Simulated is the deterministic fallback used when the real agent is not
// installed. It announces a fixed sequence of steps, drops placeholder
// screenshots into the run directory and returns a canned result, so the
// rest of the pipeline behaves exactly as in a real run.
type Simulated struct {
	StepDelay time.Duration
}

// NewSimulated creates the fallback executor with the default step delay
func NewSimulated() *Simulated {
	return &Simulated{StepDelay: DefaultStepDelay}
}

// Available always reports true
func (s *Simulated) Available() bool {
	return true
}

// Execute walks the fixed step script and writes the placeholder
// screenshots into the job's run directory
func (s *Simulated) Execute(_ context.Context, job *models.Job, emit func(string)) (string, error) {
	delay := s.StepDelay
	if delay == 0 {
		delay = DefaultStepDelay
	}

	for i, step := range simulatedSteps {
		emit(fmt.Sprintf("Step %d/%d: %s", i+1, len(simulatedSteps), step))
		time.Sleep(delay)
	}

	if job.RunDir != "" {
		if err := WritePlaceholders(filepath.Join(job.RunDir, "screenshots")); err != nil {
			return "", fmt.Errorf("failed to create demo screenshots: %w", err)
		}
	}

	return fmt.Sprintf(`Demo Automation Results:
Target URL: %s
Task: %s
Status: Completed (Demo Mode)
Simulated Actions Performed:
1. Navigated to %s
2. Analyzed page structure and content
3. Identified interactive elements
4. Performed requested automation tasks
5. Captured screenshots of key moments
6. Generated comprehensive report
Note: This is demo mode. Install the browser automation agent for real runs.`,
		job.TargetURL, job.Task, job.TargetURL), nil
}

// WritePlaceholders drops the fixed demo screenshot set into dir
func WritePlaceholders(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range placeholderNames {
		if err := os.WriteFile(filepath.Join(dir, name), placeholderPNG, 0644); err != nil {
			return err
		}
	}
	return nil
}
