package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/config"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/logger"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/server"
)

// ServeCmd starts the HTTP server and the fallback job daemon
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the sync engine server",
	Long: `Start the HTTP server: document pages, the staged approval-sync
workflow, and the fallback job daemon that guarantees eventual consistency.`,
	RunE: runServe,
}

var (
	serveDBPath string
	servePort   int
)

func init() {
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Custom database path (overrides config)")
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	database, err := openDatabase(serveDBPath)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	srv := server.New(cfg, database, logger.Logger)

	// Watch the config file when one is in use; reloads only log for now,
	// the toggle and delays take effect on restart
	if path := config.ConfigFilePath(); path != "" {
		watcher, err := config.NewWatcher(path)
		if err != nil {
			logger.Warnw("Config watcher unavailable", "path", path, "error", err)
		} else {
			watcher.OnReload(func(newCfg *config.Config) error {
				logger.Infow("Configuration changed",
					"sync_enabled", newCfg.Sync.Enabled,
					"restart_required", true,
				)
				return nil
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Infow("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
