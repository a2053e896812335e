package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Dataset is the cleaned, immutable set of usage records of one load.
type Dataset struct {
	records []Record
}

// NewDataset wraps already-clean records. Records are sorted by start date.
func NewDataset(records []Record) Dataset {
	rs := append([]Record(nil), records...)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].StartDate.Before(rs[j].StartDate)
	})
	return Dataset{records: rs}
}

// Clean parses a raw table into a Dataset. Rows whose Start Date does not
// parse are dropped; MB Consumption values that do not parse become 0.
// A table without the required columns yields ErrMissingColumn.
func Clean(t Table) (Dataset, LoadReport, error) {
	idx := t.index()
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Dataset{}, LoadReport{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	report := LoadReport{RowsRead: len(t.Rows)}
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		start, err := ParseStartDate(cell(row, idx, ColStartDate))
		if err != nil {
			report.RowsDropped++
			continue
		}
		mb, ok := ParseMB(cell(row, idx, ColMBConsumption))
		if !ok {
			report.ZeroCoerced++
		}
		records = append(records, Record{
			StartDate:     start,
			MBConsumption: mb,
			IPMac:         strings.TrimSpace(cell(row, idx, ColIPMac)),
			StartTime:     strings.TrimSpace(cell(row, idx, ColStartTime)),
			EndDate:       strings.TrimSpace(cell(row, idx, ColEndDate)),
			EndTime:       strings.TrimSpace(cell(row, idx, ColEndTime)),
		})
	}
	report.RowsKept = len(records)
	return NewDataset(records), report, nil
}

// Records returns a copy of the records, ordered by start date.
func (d Dataset) Records() []Record {
	return append([]Record(nil), d.records...)
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.records)
}

// Empty reports whether no record survived cleaning.
func (d Dataset) Empty() bool {
	return len(d.records) == 0
}

// Filter returns the records of the given year and month.
func (d Dataset) Filter(year, month int) Dataset {
	return Dataset{records: lo.Filter(d.records, func(r Record, _ int) bool {
		return r.Year() == year && r.Month() == month
	})}
}

// FilterYear returns the records of the given year.
func (d Dataset) FilterYear(year int) Dataset {
	return Dataset{records: lo.Filter(d.records, func(r Record, _ int) bool {
		return r.Year() == year
	})}
}

// TotalMB sums MB Consumption over all records.
func (d Dataset) TotalMB() float64 {
	return lo.SumBy(d.records, func(r Record) float64 { return r.MBConsumption })
}

// Table renders the records back into raw form, so that a cleaned dataset
// can be fed through Clean again.
func (d Dataset) Table() Table {
	t := Table{
		Header: []string{ColIPMac, ColStartDate, ColStartTime, ColEndDate, ColEndTime, ColMBConsumption},
		Rows:   make([][]string, 0, len(d.records)),
	}
	for _, r := range d.records {
		t.Rows = append(t.Rows, []string{
			r.IPMac,
			r.StartDate.Format(time.RFC3339Nano),
			r.StartTime,
			r.EndDate,
			r.EndTime,
			strconv.FormatFloat(r.MBConsumption, 'f', -1, 64),
		})
	}
	return t
}
