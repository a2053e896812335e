// Package cli holds the bootstrap steps shared by the netusage commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"netusage/internal/cache"
	"netusage/internal/config"
	"netusage/internal/log"
	"netusage/internal/session"
	"netusage/internal/source"
	"netusage/internal/source/google"
)

// SetupLogger builds the process logger from the log settings and makes it
// the slog default.
func SetupLogger(cfg config.LogConfig, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.Format
	lc.Component = log.ComponentApp
	lc.Output = out
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// NewSessionStore builds the session store and registers it for periodic
// expiry sweeps on m.
func NewSessionStore(cfg config.SessionConfig, m *cache.Manager, logger *log.Logger) *session.Store {
	store := session.NewStore(cfg.TTL, cfg.MaxEntries, logger)
	if m != nil {
		m.Register(store.Cleaner())
	}
	return store
}

// SweepInterval is how often expired sessions are removed for a given TTL.
func SweepInterval(ttl time.Duration) time.Duration {
	iv := ttl / 4
	if iv < time.Second {
		iv = time.Second
	}
	if iv > 10*time.Minute {
		iv = 10 * time.Minute
	}
	return iv
}

// SourceOptions selects where the report command reads from.
type SourceOptions struct {
	File  string
	Sheet bool
}

// NewSource builds the report source: the Google Sheet when requested,
// otherwise the given file or the configured default CSV.
func NewSource(ctx context.Context, cfg *config.Config, opts SourceOptions) (source.Source, error) {
	if opts.Sheet {
		if !cfg.SheetsConfigured() {
			return nil, fmt.Errorf("google sheet source requires google.spreadsheet_id and google.range")
		}
		return google.New(ctx, google.Config{
			SpreadsheetID:      cfg.Google.SpreadsheetID,
			Range:              cfg.Google.Range,
			ServiceAccountFile: cfg.Google.ServiceAccountFile,
			ServiceAccountJSON: cfg.Google.ServiceAccountJSON,
		})
	}
	path := strings.TrimSpace(opts.File)
	if path == "" {
		path = cfg.Data.DefaultCSV
	}
	f := source.NamedFile{Path: path}
	if !f.Exists() {
		return nil, fmt.Errorf("usage file %q not found", path)
	}
	return f, nil
}
