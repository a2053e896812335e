package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"netusage/internal/core"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a UTF-8 CSV with a header row into a table. A leading BOM is
// discarded, header names are trimmed, rows may have a varying number of
// fields and blank lines are skipped.
func ReadCSV(r io.Reader) (core.Table, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return core.Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return core.Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return core.Table{}, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return core.Table{}, ErrInvalidEncoding
	}

	cr := csv.NewReader(strings.NewReader(string(data)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Table{}, ErrMissingHeader
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("read csv header: %w", err)
	}

	t := core.Table{Header: trimAll(header)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return core.Table{}, fmt.Errorf("read csv line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
