package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kunnath/RobotBrowser/pkg/executor"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage configuration",
	Long:  `Commands for showing the effective configuration and writing a starter config file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the configuration the other commands would run with, after flags, config file and environment are merged.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  `Write a commented starter configuration to $HOME/.robotbrowser/config.yaml.`,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
}

type effectiveConfig struct {
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	AgentCommand  string `json:"agent_command" yaml:"agent_command"`
	DBPath        string `json:"db_path" yaml:"db_path"`
	RetentionDays int    `json:"retention_days" yaml:"retention_days"`
	LogLevel      string `json:"log_level" yaml:"log_level"`
	LogDir        string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`
	PasswordSet   bool   `json:"password_set" yaml:"password_set"`
	ConfigFile    string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	agent := GetAgentCommand()
	if agent == "" {
		agent = executor.DefaultAgentCommand
	}

	cfg := effectiveConfig{
		OutputDir:     GetOutputDir(),
		AgentCommand:  agent,
		DBPath:        GetDBPath(),
		RetentionDays: viper.GetInt("retention_days"),
		LogLevel:      viper.GetString("log_level"),
		LogDir:        viper.GetString("log_dir"),
		PasswordSet:   GetBrowserPassword() != "",
		ConfigFile:    viper.ConfigFileUsed(),
	}

	if IsJSONOutput() {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	return encoder.Encode(cfg)
}

const starterConfig = `# robotbrowser configuration
#
# All settings can be overridden by flags or ROBOTBROWSER_* environment
# variables. The site credential is never read from this file; set
# BROWSER_PASSWORD in the environment or a .env file instead.

# Directory where run reports are written
output_dir: automation_reports

# Browser automation agent command. Leave empty for the default.
# Runs fall back to demo mode when the agent is not installed.
agent_command: ""

# Run history database
db_path: ""

# Days to keep run directories and history records
retention_days: 30

# Server log level for serve mode: debug, info, warn or error
log_level: info

# Directory for the server log file. Empty means ./logs next to the process.
log_dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to find home directory: %w", err)
	}

	configDir := filepath.Join(home, ".robotbrowser")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", configDir, err)
	}

	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
