// Package report renders a usage summary for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"netusage/internal/core"
)

// Format is an output format.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts text, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Document is the serializable form of one summary.
type Document struct {
	Source    string    `json:"source" yaml:"source"`
	Year      int       `json:"year" yaml:"year"`
	Month     int       `json:"month" yaml:"month"`
	MonthName string    `json:"month_name" yaml:"month_name"`
	Unit      string    `json:"unit" yaml:"unit"`
	Metrics   Metrics   `json:"metrics" yaml:"metrics"`
	Daily     []Day     `json:"daily" yaml:"daily"`
	Monthly   []Month   `json:"monthly" yaml:"monthly"`
	Rows      RowCounts `json:"rows" yaml:"rows"`
}

type Metrics struct {
	MonthlyTotal    float64 `json:"monthly_total" yaml:"monthly_total"`
	MonthlyAvgDaily float64 `json:"avg_daily_in_month" yaml:"avg_daily_in_month"`
	YearlyTotal     float64 `json:"yearly_total" yaml:"yearly_total"`
	MonthlyAverage  float64 `json:"avg_monthly_in_year" yaml:"avg_monthly_in_year"`
}

type Day struct {
	Date    string  `json:"date" yaml:"date"`
	Usage   float64 `json:"usage" yaml:"usage"`
	TotalMB float64 `json:"total_mb" yaml:"total_mb"`
}

type Month struct {
	Month   int     `json:"month" yaml:"month"`
	Usage   float64 `json:"usage" yaml:"usage"`
	TotalMB float64 `json:"total_mb" yaml:"total_mb"`
}

type RowCounts struct {
	Read        int `json:"read" yaml:"read"`
	Kept        int `json:"kept" yaml:"kept"`
	Dropped     int `json:"dropped" yaml:"dropped"`
	ZeroCoerced int `json:"zero_coerced" yaml:"zero_coerced"`
}

// NewDocument flattens a summary. Figures are in the summary's unit.
func NewDocument(source string, s core.Summary, lr core.LoadReport) Document {
	return Document{
		Source:    source,
		Year:      s.Year,
		Month:     s.Month,
		MonthName: core.MonthName(s.Month),
		Unit:      s.Unit.String(),
		Metrics: Metrics{
			MonthlyTotal:    s.Converted.MonthlyTotal,
			MonthlyAvgDaily: s.Converted.MonthlyAvgDaily,
			YearlyTotal:     s.Converted.YearlyTotal,
			MonthlyAverage:  s.Converted.MonthlyAverage,
		},
		Daily: lo.Map(s.Daily, func(d core.DailyUsage, _ int) Day {
			return Day{Date: d.Date.Format("2006-01-02"), Usage: d.Usage, TotalMB: d.TotalMB}
		}),
		Monthly: lo.Map(s.YearlyByMonth, func(m core.MonthlyUsage, _ int) Month {
			return Month{Month: m.Month, Usage: m.Usage, TotalMB: m.TotalMB}
		}),
		Rows: RowCounts{
			Read:        lr.RowsRead,
			Kept:        lr.RowsKept,
			Dropped:     lr.RowsDropped,
			ZeroCoerced: lr.ZeroCoerced,
		},
	}
}

// Write renders doc in format f.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case Text:
		return writeText(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

const rule = "----------------------------------------"

func writeText(w io.Writer, doc Document) error {
	unit := core.Unit(doc.Unit)
	var b strings.Builder

	fmt.Fprintf(&b, "Source: %s\n", doc.Source)
	fmt.Fprintf(&b, "Rows: %s read, %s kept, %s dropped, %s zeroed\n",
		humanize.Comma(int64(doc.Rows.Read)),
		humanize.Comma(int64(doc.Rows.Kept)),
		humanize.Comma(int64(doc.Rows.Dropped)),
		humanize.Comma(int64(doc.Rows.ZeroCoerced)))

	fmt.Fprintf(&b, "\n%s %d\n", doc.MonthName, doc.Year)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-32s %s\n", "Monthly Total", core.FormatQuantity(doc.Metrics.MonthlyTotal, unit))
	fmt.Fprintf(&b, "%-32s %s\n", "Avg Daily (in Month)", core.FormatQuantity(doc.Metrics.MonthlyAvgDaily, unit))
	fmt.Fprintf(&b, "%-32s %s\n", "Yearly Total", core.FormatQuantity(doc.Metrics.YearlyTotal, unit))
	fmt.Fprintf(&b, "%-32s %s\n", "Average Monthly Usage (in Year)", core.FormatQuantity(doc.Metrics.MonthlyAverage, unit))

	fmt.Fprintf(&b, "\nDaily Usage for %d-%02d\n", doc.Year, doc.Month)
	b.WriteString(rule + "\n")
	if len(doc.Daily) == 0 {
		b.WriteString("No usage recorded for this month\n")
	} else {
		fmt.Fprintf(&b, "%-12s  %14s  %10s\n", "Date", "Total "+doc.Unit, "Size")
		b.WriteString(rule + "\n")
		var totalMB float64
		for _, d := range doc.Daily {
			fmt.Fprintf(&b, "%-12s  %14s  %10s\n", d.Date, core.FormatNumber(d.Usage), mbToIEC(d.TotalMB))
			totalMB += d.TotalMB
		}
		b.WriteString(rule + "\n")
		fmt.Fprintf(&b, "Total: %s (%s, %d days)\n",
			core.FormatQuantity(doc.Metrics.MonthlyTotal, unit), mbToIEC(totalMB), len(doc.Daily))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mbToIEC(mb float64) string {
	if mb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}
