package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"netusage/internal/core"
)

// NamedFile reads a CSV from the local filesystem.
type NamedFile struct {
	Path string
}

func (f NamedFile) Name() string { return f.Path }
func (f NamedFile) Kind() string { return "file" }

func (f NamedFile) ReadRows(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return core.Table{}, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer fh.Close()

	t, err := ReadCSV(fh)
	if err != nil {
		return core.Table{}, fmt.Errorf("%s: %w", filepath.Base(f.Path), err)
	}
	return t, nil
}

// Exists reports whether the file is present and regular.
func (f NamedFile) Exists() bool {
	if f.Path == "" {
		return false
	}
	st, err := os.Stat(f.Path)
	return err == nil && st.Mode().IsRegular()
}

// Stream is an uploaded CSV held in memory.
type Stream struct {
	Filename string
	Data     []byte
}

func (s Stream) Name() string {
	if s.Filename == "" {
		return "upload"
	}
	return s.Filename
}

func (s Stream) Kind() string { return "upload" }

func (s Stream) ReadRows(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	return ReadCSV(bytes.NewReader(s.Data))
}
