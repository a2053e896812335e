package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netusage/internal/cache"
	"netusage/internal/config"
	"netusage/internal/source"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"app"`)

	_, err = SetupLogger(config.LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Second, SweepInterval(time.Second))
	assert.Equal(t, 5*time.Minute, SweepInterval(20*time.Minute))
	assert.Equal(t, 10*time.Minute, SweepInterval(24*time.Hour))
}

func TestNewSessionStore_RegistersCleaner(t *testing.T) {
	m := cache.NewManager(nil)
	store := NewSessionStore(config.SessionConfig{TTL: time.Minute, MaxEntries: 4}, m, nil)
	require.NotNil(t, store)
	assert.Equal(t, 0, m.Sweep())
}

func TestNewSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usage.csv")
	require.NoError(t, os.WriteFile(path, []byte("Start Date,MB Consumption\n2024-01-01,1\n"), 0o600))

	cfg := &config.Config{Data: config.DataConfig{DefaultCSV: path}}

	src, err := NewSource(context.Background(), cfg, SourceOptions{})
	require.NoError(t, err)
	assert.Equal(t, source.NamedFile{Path: path}, src)

	_, err = NewSource(context.Background(), cfg, SourceOptions{File: filepath.Join(dir, "nope.csv")})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not found"))

	_, err = NewSource(context.Background(), cfg, SourceOptions{Sheet: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.spreadsheet_id")
}
