package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kunnath/RobotBrowser/pkg/artifacts"
	"github.com/kunnath/RobotBrowser/pkg/models"
	"github.com/kunnath/RobotBrowser/pkg/report"
)

var reportLatest bool

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Rebuild the HTML report for a past run",
	Long: `Rescan a run directory for screenshots and regenerate its HTML report
from the stored report data. Useful after screenshots were copied in
manually or arrived late.

With --latest the most recently modified run directory is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportLatest, "latest", false, "rebuild the most recent run's report")
}

func runReport(cmd *cobra.Command, args []string) error {
	var runDir string
	switch {
	case len(args) == 1:
		runDir = filepath.Join(GetOutputDir(), args[0])
	case reportLatest:
		dir, err := newestRunDir(GetOutputDir())
		if err != nil {
			return err
		}
		runDir = dir
	default:
		return fmt.Errorf("provide a run id or use --latest")
	}

	if _, err := os.Stat(runDir); err != nil {
		return fmt.Errorf("run directory not found: %s", runDir)
	}

	sc, err := report.LoadSidecar(filepath.Join(runDir, report.SidecarName))
	if err != nil {
		return fmt.Errorf("run directory has no usable report data: %w", err)
	}

	job := &models.Job{
		TargetURL: sc.URL,
		Task:      sc.TaskDescription,
		RunID:     filepath.Base(runDir),
		RunDir:    runDir,
	}
	manifest := artifacts.Collect(filepath.Join(runDir, artifacts.DirName))

	reportPath, _, err := report.New().Synthesize(job, sc.Result, manifest, runDir, sc.Mode)
	if err != nil {
		return fmt.Errorf("failed to rebuild report: %w", err)
	}

	fmt.Printf("Rebuilt report for %s\n", job.RunID)
	fmt.Printf("  Screenshots: %d\n", len(manifest))
	fmt.Printf("  Report:      %s\n", reportPath)
	return nil
}

// newestRunDir returns the most recently modified run directory under base
func newestRunDir(base string) (string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", base, err)
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = entry.Name()
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no run directories under %s", base)
	}
	return filepath.Join(base, newest), nil
}
