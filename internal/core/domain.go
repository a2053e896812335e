package core

import (
	"errors"
	"strings"
	"time"
)

// Column names of the usage export.
const (
	ColIPMac         = "Ip-Mac"
	ColStartDate     = "Start Date"
	ColStartTime     = "Start Time"
	ColEndDate       = "End Date"
	ColEndTime       = "End Time"
	ColMBConsumption = "MB Consumption"
)

// RequiredColumns must be present in the header of every input table.
var RequiredColumns = []string{ColStartDate, ColMBConsumption}

type (
	// Table is raw tabular input: a header row and string cells.
	Table struct {
		Header []string
		Rows   [][]string
	}

	// Record is one cleaned usage row.
	Record struct {
		StartDate     time.Time
		MBConsumption float64

		// Passed through, unused by aggregation.
		IPMac     string
		StartTime string
		EndDate   string
		EndTime   string
	}

	// DailyUsage is the consumption summed over one calendar date.
	DailyUsage struct {
		Date    time.Time
		TotalMB float64
		Usage   float64 // TotalMB in the selected unit
	}

	// MonthlyUsage is the consumption summed over one month of a year.
	MonthlyUsage struct {
		Month   int
		TotalMB float64
		Usage   float64
	}

	// LoadReport describes what cleaning did to the raw rows.
	LoadReport struct {
		RowsRead    int
		RowsKept    int
		RowsDropped int // unparseable Start Date
		ZeroCoerced int // unparseable MB Consumption
	}
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidUnit   = errors.New("invalid unit")
	ErrInvalidDate   = errors.New("invalid date")
)

// Year returns the calendar year of the record's start date.
func (r Record) Year() int {
	return r.StartDate.Year()
}

// Month returns the month (1-12) of the record's start date.
func (r Record) Month() int {
	return int(r.StartDate.Month())
}

// Day truncates the start date to midnight UTC of its calendar date.
func (r Record) Day() time.Time {
	y, m, d := r.StartDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// index maps trimmed header names to column positions. The first occurrence
// of a duplicated name wins.
func (t Table) index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		h = strings.TrimSpace(h)
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
