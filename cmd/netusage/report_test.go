package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netusage/internal/report"
)

func TestReportCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "usage.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Ip-Mac,Start Date,Start Time,End Date,End Time,MB Consumption\n"+
			"x,2024-01-01,08:00,2024-01-01,09:00,500\n"+
			"x,2024-01-01,10:00,2024-01-01,11:00,300\n"+
			"x,2024-01-02,08:00,2024-01-02,09:00,200\n"+
			"x,2024-02-01,08:00,2024-02-01,09:00,1024\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"report", "--file", path, "--year", "2024", "--month", "1", "--unit", "gb", "--output", "json"})
	require.NoError(t, rootCmd.Execute())

	var doc report.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, 2024, doc.Year)
	assert.Equal(t, 1, doc.Month)
	assert.Equal(t, "GB", doc.Unit)
	assert.InDelta(t, 1000.0/1024, doc.Metrics.MonthlyTotal, 1e-9)
	assert.InDelta(t, 2024.0/1024, doc.Metrics.YearlyTotal, 1e-9)
	require.Len(t, doc.Daily, 2)
	assert.Equal(t, "2024-01-01", doc.Daily[0].Date)
}

func TestReportCommand_InvalidOutput(t *testing.T) {
	chdir(t, t.TempDir())
	rootCmd.SetArgs([]string{"report", "--output", "xml"})
	assert.Error(t, rootCmd.Execute())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd %s: %v", prev, err)
		}
	})
}
