// Package core holds the usage aggregation logic: cleaning raw rows,
// filtering by year and month, grouping by date and unit conversion.
//
// This file contains the tolerant cell parsers used while cleaning.
package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Month-first wins for ambiguous slash dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseStartDate parses a start date cell. Time-zone-less values are read as UTC.
//
// Examples:
//
//	ParseStartDate("2024-01-31")          -> 2024-01-31 00:00:00 UTC
//	ParseStartDate("2024-01-31 08:15:00") -> 2024-01-31 08:15:00 UTC
//	ParseStartDate("01/31/2024")          -> 2024-01-31 00:00:00 UTC
//	ParseStartDate("yesterday")           -> ErrInvalidDate
func ParseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ParseMB parses a consumption cell into megabytes. It reports ok=false and
// returns 0 for anything that is not a finite, non-negative number.
// Thousands separators ("1,234.5") are accepted.
func ParseMB(s string) (mb float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
