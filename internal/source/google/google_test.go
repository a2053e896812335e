package google

import (
	"context"
	"errors"
	"testing"

	"netusage/internal/source"
)

type fakeValues struct {
	values [][]interface{}
	err    error
	gotID  string
	gotRng string
}

func (f *fakeValues) Get(_ context.Context, id, rng string) ([][]interface{}, error) {
	f.gotID, f.gotRng = id, rng
	return f.values, f.err
}

func TestSheetReadRows(t *testing.T) {
	fv := &fakeValues{values: [][]interface{}{
		{},
		{" Start Date ", "MB Consumption"},
		{"2024-01-01", 500},
		{"", ""},
		{"2024-01-02", 12.5},
	}}
	s := &Sheet{values: fv, spreadsheetID: "sheet-id", rng: "Usage!A:F"}

	tbl, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv.gotID != "sheet-id" || fv.gotRng != "Usage!A:F" {
		t.Fatalf("unexpected request %q %q", fv.gotID, fv.gotRng)
	}
	if tbl.Header[0] != "Start Date" {
		t.Fatalf("header not trimmed: %q", tbl.Header[0])
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[1][1] != "12.5" {
		t.Fatalf("expected 12.5, got %q", tbl.Rows[1][1])
	}
	if s.Kind() != "sheet" || s.Name() != "sheet-id/Usage!A:F" {
		t.Fatalf("unexpected identity %s %s", s.Kind(), s.Name())
	}
}

func TestSheetReadRows_Errors(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := &Sheet{values: &fakeValues{err: boom}, spreadsheetID: "id", rng: "A:F"}
	if _, err := s.ReadRows(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	s = &Sheet{values: &fakeValues{}, spreadsheetID: "id", rng: "A:F"}
	if _, err := s.ReadRows(context.Background()); !errors.Is(err, source.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	s = &Sheet{values: &fakeValues{values: [][]interface{}{{""}, {}}}, spreadsheetID: "id", rng: "A:F"}
	if _, err := s.ReadRows(context.Background()); !errors.Is(err, source.ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{Range: "A:F"}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if _, err := New(ctx, Config{SpreadsheetID: "id"}); err == nil {
		t.Fatal("expected error for missing range")
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := New(ctx, Config{SpreadsheetID: "id", Range: "A:F"}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if _, err := New(ctx, Config{SpreadsheetID: "id", Range: "A:F", ServiceAccountFile: "/nonexistent/sa.json"}); err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
}
