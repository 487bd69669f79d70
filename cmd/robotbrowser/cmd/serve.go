package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kunnath/RobotBrowser/pkg/api"
	"github.com/kunnath/RobotBrowser/pkg/cleanup"
	"github.com/kunnath/RobotBrowser/pkg/logging"
	"github.com/kunnath/RobotBrowser/pkg/metrics"
	"github.com/kunnath/RobotBrowser/pkg/runner"
	"github.com/kunnath/RobotBrowser/pkg/shutdown"
	"github.com/kunnath/RobotBrowser/pkg/store"
)

var (
	serveListen          string
	serveLogLevel        string
	serveRetentionDays   int
	serveNoCleanup       bool
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the automation API server",
	Long: `Start an HTTP server exposing the automation runner: submit runs,
poll progress and outcomes, browse run history, and scrape metrics.
One run executes at a time; submissions during a run are rejected
with 409 Conflict.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "log level: debug, info, warn or error (default from config, info)")
	serveCmd.Flags().IntVar(&serveRetentionDays, "retention-days", 0, "days to keep run directories and history (default from config, 30)")
	serveCmd.Flags().BoolVar(&serveNoCleanup, "no-cleanup", false, "disable the retention sweeper")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 30*time.Second, "how long to wait for the active run on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := serveLogLevel
	if level == "" {
		level = viper.GetString("log_level")
	}
	log, err := logging.NewFileLogger("serve", logging.ParseLevel(level), viper.GetString("log_dir"))
	if err != nil {
		return fmt.Errorf("failed to open the server log: %w", err)
	}

	hist, err := store.NewSQLiteStore(GetDBPath())
	if err != nil {
		log.Close()
		return fmt.Errorf("failed to open run history database: %w", err)
	}

	r := runner.New(runner.Config{
		BaseOutputDir: GetOutputDir(),
		AgentCommand:  GetAgentCommand(),
		Store:         hist,
		Logger:        log.WithField("component", "runner"),
	})

	collector := metrics.NewCollector(hist, r.IsRunning)

	handler := api.NewHandler(r, hist)
	handler.SetCollector(collector)
	handler.SetLogger(log.WithField("component", "api"))

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	retention := serveRetentionDays
	if retention <= 0 {
		retention = viper.GetInt("retention_days")
	}
	cleanupCfg := cleanup.DefaultConfig()
	cleanupCfg.Enabled = !serveNoCleanup
	cleanupCfg.BaseOutputDir = GetOutputDir()
	if retention > 0 {
		cleanupCfg.RetentionDays = retention
	}
	sweeper := cleanup.NewManager(cleanupCfg, hist, log.WithField("component", "cleanup"))
	sweeper.InUse = func(runID string) bool {
		cur := r.Current()
		return cur != nil && r.IsRunning() && cur.RunID == runID
	}
	sweeper.Start()

	srv := &http.Server{
		Addr:         serveListen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// LIFO: the server stops accepting work first, then the active run
	// drains, then background workers stop, then the store and the
	// server log close
	sd := shutdown.New(serveShutdownTimeout)
	sd.Register(shutdown.CloseResource(log, "server log"))
	sd.Register(shutdown.CloseResource(hist, "run history database"))
	sd.Register(func(ctx context.Context) error {
		sweeper.Stop()
		return nil
	})
	sd.Register(shutdown.WaitForRun(func() bool { return !r.IsRunning() }, time.Second))
	sd.Register(shutdown.StopHTTPServer(srv, "automation API"))

	serverErr := make(chan error, 1)
	go func() {
		log.Info("automation API listening", map[string]interface{}{"addr": serveListen})
		fmt.Println("API endpoints:")
		fmt.Println("  POST   /runs")
		fmt.Println("  GET    /runs")
		fmt.Println("  GET    /runs/{id}")
		fmt.Println("  DELETE /runs/{id}")
		fmt.Println("  GET    /runs/current")
		fmt.Println("  GET    /runs/current/status")
		fmt.Println("  GET    /runs/current/outcome")
		fmt.Println("  GET    /runs/current/artifacts")
		fmt.Println("  GET    /metrics")
		fmt.Println("  GET    /health")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	go sd.Wait()

	// Shut down on whichever comes first: a termination signal or the
	// listener failing
	var srvErr error
	select {
	case <-sd.Done():
	case srvErr = <-serverErr:
		log.Error("server error", map[string]interface{}{"error": srvErr.Error()})
	}

	sd.Shutdown()

	if srvErr != nil {
		return fmt.Errorf("automation API server: %w", srvErr)
	}
	return nil
}
