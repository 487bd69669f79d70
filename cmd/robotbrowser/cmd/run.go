package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kunnath/RobotBrowser/pkg/executor"
	"github.com/kunnath/RobotBrowser/pkg/logging"
	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/runner"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

var (
	runHeadless      bool
	runNoScreenshots bool
	runNoHistory     bool
	runStepDelay     time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <url> <task...>",
	Short: "Run a browser automation task",
	Long: `Run a browser automation task against the target URL and generate an
HTML report with the captured screenshots.

The task description can span multiple arguments; everything after the
URL is joined into one instruction for the agent. When the automation
agent is not installed the task runs in demo mode with placeholder
screenshots.

Example:
  robotbrowser run https://example.com "find the pricing page and capture it"
  robotbrowser run https://example.com check the login form --headless=false`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAutomation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runHeadless, "headless", true, "run the browser without a visible window")
	runCmd.Flags().BoolVar(&runNoScreenshots, "no-screenshots", false, "skip copying screenshots from the agent's temp directory")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not record this run in the history database")
	runCmd.Flags().DurationVar(&runStepDelay, "step-delay", executor.DefaultStepDelay, "pause between demo-mode steps")
}

func runAutomation(cmd *cobra.Command, args []string) error {
	targetURL := args[0]
	task := strings.Join(args[1:], " ")

	var hist store.Store
	if !runNoHistory {
		s, err := store.NewSQLiteStore(GetDBPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		} else {
			hist = s
			defer s.Close()
		}
	}

	r := runner.New(runner.Config{
		BaseOutputDir: GetOutputDir(),
		AgentCommand:  GetAgentCommand(),
		Fallback:      &executor.Simulated{StepDelay: runStepDelay},
		Store:         hist,
		Logger:        logging.NewLogger(logging.WARN),
	})

	job := models.NewJob(targetURL, task)
	job.Credential = GetBrowserPassword()
	job.Headless = runHeadless
	job.CopyScratch = !runNoScreenshots

	fmt.Printf("🤖 Browser Automation\n")
	fmt.Printf("URL:  %s\n", targetURL)
	fmt.Printf("Task: %s\n\n", task)

	if !r.Submit(job) {
		return fmt.Errorf("another run is already in progress")
	}

	outcome := followRun(r)

	if IsJSONOutput() {
		output, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		if outcome.Failed() {
			return fmt.Errorf("run failed: %s", outcome.Error)
		}
		return nil
	}

	fmt.Println()
	if outcome.Failed() {
		if outcome.ReportPath != "" {
			fmt.Printf("Error report: %s\n", outcome.ReportPath)
		}
		return fmt.Errorf("run failed: %s", outcome.Error)
	}

	if outcome.Result != "" {
		fmt.Println("🎬 Execution Results")
		fmt.Println(outcome.Result)
		fmt.Println()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Run ID", outcome.RunID)
	table.Append("Mode", string(outcome.Mode))
	table.Append("Screenshots", fmt.Sprintf("%d", len(outcome.Artifacts)))
	if outcome.ReportPath != "" {
		table.Append("Report", outcome.ReportPath)
	}
	if outcome.SidecarPath != "" {
		table.Append("Report Data", outcome.SidecarPath)
	}
	table.Append("Completed At", outcome.CompletedAt.Format(time.RFC3339))
	table.Render()

	return nil
}

// followRun prints progress lines as they arrive and returns the
// terminal outcome
func followRun(r *runner.Runner) models.Outcome {
	for {
		for {
			ev, ok := r.PollStatus()
			if !ok {
				break
			}
			fmt.Println(ev.Message)
		}
		if out, ok := r.PollOutcome(); ok {
			// Drain whatever arrived between the last poll and the outcome
			for {
				ev, ok := r.PollStatus()
				if !ok {
					break
				}
				fmt.Println(ev.Message)
			}
			return out
		}
		time.Sleep(200 * time.Millisecond)
	}
}
