package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/kunnath/RobotBrowser/pkg/artifacts"
	"github.com/kunnath/RobotBrowser/pkg/executor"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local automation environment",
	Long: `Check whether the browser automation agent, report directory, history
database and system resources are ready for real runs. A missing agent
is not an error; runs then fall back to demo mode.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	failed := false

	fmt.Println("robotbrowser environment check")
	fmt.Println()

	// Automation agent
	agent := executor.NewAgent(GetAgentCommand())
	if path, err := exec.LookPath(agent.Command); err == nil {
		fmt.Printf("✅ automation agent: %s\n", path)
	} else {
		fmt.Printf("⚠️  automation agent %q not found; runs will use demo mode\n", agent.Command)
	}

	// Credential
	if GetBrowserPassword() != "" {
		fmt.Println("✅ BROWSER_PASSWORD is set")
	} else {
		fmt.Println("⚠️  BROWSER_PASSWORD not set; sites requiring login will fail")
	}

	// Report directory
	outDir := GetOutputDir()
	if err := checkWritable(outDir); err != nil {
		fmt.Printf("❌ report directory %s not writable: %v\n", outDir, err)
		failed = true
	} else {
		fmt.Printf("✅ report directory: %s\n", outDir)
	}

	// History database
	if s, err := store.NewSQLiteStore(GetDBPath()); err != nil {
		fmt.Printf("❌ history database %s: %v\n", GetDBPath(), err)
		failed = true
	} else {
		runs, lerr := s.ListRuns(1)
		s.Close()
		if lerr != nil {
			fmt.Printf("❌ history database %s: %v\n", GetDBPath(), lerr)
			failed = true
		} else if len(runs) > 0 {
			fmt.Printf("✅ history database: %s (last run %s)\n", GetDBPath(), runs[0].RunID)
		} else {
			fmt.Printf("✅ history database: %s (empty)\n", GetDBPath())
		}
	}

	// Agent scratch directories
	if dir, ok := artifacts.FindNewestScratch(); ok {
		fmt.Printf("✅ agent scratch screenshots found: %s\n", dir)
	} else {
		fmt.Println("ℹ️  no agent scratch screenshots (normal before the first real run)")
	}

	// System resources
	fmt.Println()
	fmt.Printf("System: %s/%s, %d CPUs\n", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	if pct, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(pct) > 0 {
		fmt.Printf("  CPU usage:  %.1f%%\n", pct[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Printf("  Memory:     %.1f GB free of %.1f GB\n",
			float64(vm.Available)/(1<<30), float64(vm.Total)/(1<<30))
	}
	if abs, err := filepath.Abs(outDir); err == nil {
		if du, err := disk.Usage(diskProbePath(abs)); err == nil {
			fmt.Printf("  Disk:       %.1f GB free on %s (%.1f%% used)\n",
				float64(du.Free)/(1<<30), du.Path, du.UsedPercent)
		}
	}

	if failed {
		return fmt.Errorf("environment check failed")
	}
	fmt.Println("\nAll required checks passed.")
	return nil
}

// checkWritable verifies the directory exists (creating it if needed)
// and accepts a test file
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// diskProbePath walks up from path to the nearest existing directory so
// disk.Usage works before the report directory has been created
func diskProbePath(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
