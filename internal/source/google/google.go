// Package google reads usage rows from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"netusage/internal/core"
	"netusage/internal/source"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config locates the sheet and its credentials.
type Config struct {
	SpreadsheetID      string
	Range              string // e.g. "Usage!A:F"
	ServiceAccountFile string
	ServiceAccountJSON string
}

// valuesGetter is the one Sheets call the source needs.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type apiGetter struct {
	svc *gsheet.Service
}

func (g apiGetter) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Sheet is a usage source backed by a spreadsheet range whose first row is
// the header.
type Sheet struct {
	values        valuesGetter
	spreadsheetID string
	rng           string
}

var _ source.Source = (*Sheet)(nil)

// New creates a Sheet source authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Sheet, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.Range) == "" {
		return nil, errors.New("missing sheet range")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Sheet{
		values:        apiGetter{svc: svc},
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		rng:           strings.TrimSpace(cfg.Range),
	}, nil
}

func (s *Sheet) Name() string { return s.spreadsheetID + "/" + s.rng }
func (s *Sheet) Kind() string { return "sheet" }

func (s *Sheet) ReadRows(ctx context.Context) (core.Table, error) {
	values, err := s.values.Get(ctx, s.spreadsheetID, s.rng)
	if err != nil {
		return core.Table{}, fmt.Errorf("read range %s: %w", s.rng, err)
	}
	return tableFromValues(values)
}

// tableFromValues treats the first non-blank row as the header.
func tableFromValues(values [][]interface{}) (core.Table, error) {
	if len(values) == 0 {
		return core.Table{}, source.ErrEmptyFile
	}
	var t core.Table
	for _, row := range values {
		cols := toStrings(row)
		if t.Header == nil {
			if blank(cols) {
				continue
			}
			t.Header = cols
			continue
		}
		if blank(cols) {
			continue
		}
		t.Rows = append(t.Rows, cols)
	}
	if t.Header == nil {
		return core.Table{}, source.ErrMissingHeader
	}
	return t, nil
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials, inline JSON first, then file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	saJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	saFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if saJSON == "" && saFile == "" {
		saFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case saJSON != "":
		creds = []byte(saJSON)
	case saFile != "":
		b, err := os.ReadFile(saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set google.service_account_json, google.service_account_file, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func blank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}
