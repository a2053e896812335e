// Package source supplies raw usage tables to the aggregator. Every variant
// (named file, in-memory stream, spreadsheet range) exposes the same single
// capability: read rows.
package source

import (
	"context"
	"errors"

	"netusage/internal/core"
)

// Source reads one snapshot of usage rows.
type Source interface {
	// Name identifies the snapshot for logs and the dashboard banner.
	Name() string
	// Kind is a short, low-cardinality label such as "file" or "upload".
	Kind() string
	// ReadRows returns the header and data rows.
	ReadRows(ctx context.Context) (core.Table, error)
}

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrMissingHeader   = errors.New("missing header row")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
)
