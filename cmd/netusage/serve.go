package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"netusage/internal/cache"
	"netusage/internal/cli"
	"netusage/internal/events"
	apphttp "netusage/internal/http"
	"netusage/internal/log"
	"netusage/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the usage dashboard",
	Long:  `Starts the HTTP dashboard. The default CSV is loaded on first visit when present.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger, err := cli.SetupLogger(cfg.Log, os.Stdout)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}

	ctx, cancel := cli.SignalContext(cmd.Context(), logger)
	defer cancel()

	cacheLog := logger.WithComponent(log.ComponentCache)
	sweeper := cache.NewManager(func(removed int) {
		cacheLog.Debug("Expired sessions removed", "removed", removed)
	})
	store := cli.NewSessionStore(cfg.Session, sweeper, logger)
	sweeper.StartCleanup(cli.SweepInterval(cfg.Session.TTL))
	defer sweeper.Stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		if m, err = metrics.New(store.Len); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
	}

	publisher, err := events.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("connecting events backend: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Closing events backend failed", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(cfg, apphttp.Deps{
		Sessions:  store,
		Metrics:   m,
		Publisher: publisher,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting netusage server",
			"port", cfg.Port,
			"default_csv", cfg.Data.DefaultCSV,
			"events", cfg.Events.Backend,
			"session_ttl", cfg.Session.TTL.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
