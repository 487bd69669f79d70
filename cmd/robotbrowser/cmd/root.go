package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kunnath/RobotBrowser/pkg/runner"
)

var (
	cfgFile      string
	outputDir    string
	outputFormat string
	agentCommand string
	dbPath       string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "robotbrowser",
	Short: "Browser automation runner with HTML reporting",
	Long: `robotbrowser runs browser automation tasks against a target URL and
produces a self-contained HTML report with the captured screenshots.
When the automation agent is not installed, tasks run in demo mode.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.robotbrowser/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for run reports (default automation_reports)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&agentCommand, "agent", "", "browser automation agent command (default browser-use)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run history database path (default $HOME/.robotbrowser/runs.db)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".robotbrowser")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("robotbrowser")
	viper.AutomaticEnv()

	// The agent credential deliberately lives outside the config file
	viper.BindEnv("browser_password", "BROWSER_PASSWORD")

	viper.SetDefault("output_dir", runner.DefaultBaseOutputDir)
	viper.SetDefault("agent_command", "")
	viper.SetDefault("retention_days", 30)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_dir", "")

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if outputDir == "" {
			outputDir = viper.GetString("output_dir")
		}
		if agentCommand == "" {
			agentCommand = viper.GetString("agent_command")
		}
		if dbPath == "" {
			dbPath = viper.GetString("db_path")
		}
	}

	if outputDir == "" {
		outputDir = viper.GetString("output_dir")
	}
	if agentCommand == "" {
		agentCommand = viper.GetString("agent_command")
	}
}

// GetOutputDir returns the configured report directory
func GetOutputDir() string {
	if outputDir != "" {
		return outputDir
	}
	return runner.DefaultBaseOutputDir
}

// GetAgentCommand returns the configured automation agent command, empty
// meaning the built-in default
func GetAgentCommand() string {
	return agentCommand
}

// GetBrowserPassword returns the site credential from the BROWSER_PASSWORD
// environment variable, never from a flag
func GetBrowserPassword() string {
	return viper.GetString("browser_password")
}

// GetDBPath returns the run history database path
func GetDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "runs.db"
	}
	return filepath.Join(home, ".robotbrowser", "runs.db")
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}
