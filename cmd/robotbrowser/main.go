package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/kunnath/RobotBrowser/cmd/robotbrowser/cmd"
)

func main() {
	// Load .env if present so BROWSER_PASSWORD can live in a local file
	// during development. Absence is not an error.
	godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
