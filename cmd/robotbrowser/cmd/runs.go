package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse run history",
	Long:  `Commands for listing and inspecting past automation runs recorded in the history database.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Long:  `List past runs, newest first.`,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run in detail",
	Long:  `Show a single run by its directory name (e.g. example_com_20250314_150926) or record ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run from history",
	Long:  `Remove a run record from the history database. Report files on disk are not touched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list (0 for all)")
}

func openHistory() (store.Store, error) {
	s, err := store.NewSQLiteStore(GetDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open run history database: %w", err)
	}
	return s, nil
}

func findRun(s store.Store, id string) (*models.RunRecord, error) {
	rec, err := s.GetRunByRunID(id)
	if err == store.ErrRunNotFound {
		rec, err = s.GetRun(id)
	}
	if err == store.ErrRunNotFound {
		return nil, fmt.Errorf("no run found for %q", id)
	}
	return rec, err
}

func runRunsList(cmd *cobra.Command, args []string) error {
	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Run ID", "URL", "Task", "Status", "Mode", "Created")
	for _, rec := range runs {
		table.Append(
			rec.RunID,
			truncate(rec.URL, 32),
			truncate(rec.Task, 36),
			string(rec.Status),
			string(rec.Mode),
			rec.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	table.Render()
	fmt.Printf("\n%d run(s)\n", len(runs))

	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := findRun(s, args[0])
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Run ID", rec.RunID)
	table.Append("URL", rec.URL)
	table.Append("Task", rec.Task)
	table.Append("Status", string(rec.Status))
	if rec.Mode != "" {
		table.Append("Mode", string(rec.Mode))
	}
	if rec.ReportPath != "" {
		table.Append("Report", rec.ReportPath)
	}
	table.Append("Created At", rec.CreatedAt.Format(time.RFC3339))
	if rec.StartedAt != nil {
		table.Append("Started At", rec.StartedAt.Format(time.RFC3339))
	}
	if rec.CompletedAt != nil {
		table.Append("Completed At", rec.CompletedAt.Format(time.RFC3339))
	}
	if rec.Error != "" {
		table.Append("Error", rec.Error)
	}
	table.Render()

	if rec.Result != "" {
		fmt.Println("\nResult:")
		fmt.Println(rec.Result)
	}

	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	s, err := openHistory()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := findRun(s, args[0])
	if err != nil {
		return err
	}
	if err := s.DeleteRun(rec.ID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	fmt.Printf("Deleted run %s from history.\n", rec.RunID)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
