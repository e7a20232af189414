package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crosscast/crosscast/config"
	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/hub"
	"github.com/crosscast/crosscast/internal/version"
	"github.com/crosscast/crosscast/logger"
	"github.com/crosscast/crosscast/provider"
	"github.com/crosscast/crosscast/publish"
	"github.com/crosscast/crosscast/quota"
	"github.com/crosscast/crosscast/server"
	"github.com/crosscast/crosscast/timing"
)

// ServeCmd starts the Crosscast publishing server
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the publishing server (API + WebSocket + scheduler)",
	Long: `Launch the Crosscast server: the JSON API for job submission, the
WebSocket status stream, and the ticker that fires deferred jobs at their
scheduled slots.`,
	RunE: runServe,
}

var (
	serveConfigPath string
	serveDBPath     string
	servePort       int
)

func init() {
	ServeCmd.Flags().StringVar(&serveConfigPath, "config", "", "Config file path (overrides search path)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Custom database path (overrides config)")
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	database, err := openDatabase(cfg, serveDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	log := logger.Logger

	// Assemble the pipeline
	store := publish.NewStore(database)
	period := time.Duration(cfg.Quota.PeriodDays) * 24 * time.Hour
	tracker := quota.NewTrackerWithClock(database, period, time.Now)
	sim := provider.NewSimulated(log)
	executor := publish.NewExecutor(tracker, sim, sim, cfg.Publish.ProviderCallsPerMinute, log)
	h := hub.New(log)
	orchestrator := publish.NewOrchestrator(store, executor, timing.NewScheduler(), h, cfg.Publish.MaxRetries, log)

	ticker := publish.NewTicker(store, orchestrator, publish.TickerConfig{
		Interval: time.Duration(cfg.Publish.TickerIntervalSeconds) * time.Second,
	}, log)
	ticker.Start()
	defer ticker.Stop()

	// Reload server settings when the config file changes on disk
	if path := config.ConfigPath(); path != "" {
		watcher, err := config.NewWatcher(path)
		if err != nil {
			log.Warnw("Config watcher unavailable", "error", err)
		} else {
			watcher.OnReload(func(updated *config.Config) error {
				cfg.Server.AllowedOrigins = updated.Server.AllowedOrigins
				log.Infow("Configuration reloaded", "path", path)
				return nil
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := server.NewServer(cfg, orchestrator, tracker, h, log)

	printServeBanner(cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		pterm.Println()
		pterm.Info.Printf("Received %s, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnw("HTTP shutdown incomplete", "error", err)
	}
	if err := orchestrator.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "jobs did not drain before shutdown deadline")
	}

	pterm.Success.Println("Shutdown complete")
	return nil
}

func printServeBanner(cfg *config.Config) {
	pterm.DefaultHeader.WithFullWidth().Printf("Crosscast %s", version.Version)
	pterm.Println()
	pterm.Info.Printf("Listening on http://localhost:%d\n", cfg.Server.Port)
	pterm.Info.Printf("WebSocket stream at ws://localhost:%d/ws?owner_id=<owner>\n", cfg.Server.Port)
	pterm.Info.Printf("Database: %s\n", cfg.Database.Path)
	if path := config.ConfigPath(); path != "" {
		pterm.Info.Printf("Config: %s\n", path)
	} else {
		pterm.Info.Println(fmt.Sprintf("Config: defaults (no %s file found)", "crosscast.toml"))
	}
	pterm.Println()
}
