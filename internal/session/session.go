// Package session binds one loaded dataset to an id so that the dashboard
// can re-aggregate it on every interaction without shared globals.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"netusage/internal/core"
	"netusage/internal/source"
)

// ErrNoValidRows means the source parsed but no row had a usable Start Date.
var ErrNoValidRows = errors.New("no valid usage rows")

// Session is an immutable loaded dataset.
type Session struct {
	ID         string
	Source     string
	SourceKind string
	LoadedAt   time.Time
	Dataset    core.Dataset
	Report     core.LoadReport
}

// Load reads and cleans src. The returned report is populated even when the
// error is ErrNoValidRows.
func Load(ctx context.Context, src source.Source) (*Session, core.LoadReport, error) {
	tbl, err := src.ReadRows(ctx)
	if err != nil {
		return nil, core.LoadReport{}, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	ds, report, err := core.Clean(tbl)
	if err != nil {
		return nil, report, fmt.Errorf("clean %s: %w", src.Name(), err)
	}
	if ds.Empty() {
		return nil, report, ErrNoValidRows
	}
	return &Session{
		ID:         uuid.NewString(),
		Source:     src.Name(),
		SourceKind: src.Kind(),
		LoadedAt:   time.Now().UTC(),
		Dataset:    ds,
		Report:     report,
	}, report, nil
}

// Summary aggregates the session's dataset for sel.
func (s *Session) Summary(sel core.Selection) core.Summary {
	return core.Summarize(s.Dataset, sel)
}

// DefaultSelection is the latest year, its latest month and unit.
func (s *Session) DefaultSelection(unit core.Unit) core.Selection {
	return s.Dataset.DefaultSelection(unit)
}

// Resolve fills zero fields of sel from the defaults. A year given without
// a month takes that year's latest month.
func (s *Session) Resolve(sel core.Selection, fallback core.Unit) core.Selection {
	def := s.DefaultSelection(fallback)
	if sel.Year == 0 {
		sel.Year = def.Year
	} else if sel.Month == 0 {
		if months := s.Dataset.FilterYear(sel.Year).Months(); len(months) > 0 {
			sel.Month = months[len(months)-1]
		}
	}
	if sel.Month == 0 {
		sel.Month = def.Month
	}
	if sel.Unit == "" {
		sel.Unit = def.Unit
	}
	return sel
}
