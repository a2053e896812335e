package core

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Selection is what the user picked in the dashboard controls.
type Selection struct {
	Year  int
	Month int // 1-12
	Unit  Unit
}

// Stats are the four headline figures, all in one unit.
type Stats struct {
	MonthlyTotal    float64
	MonthlyAvgDaily float64
	YearlyTotal     float64
	MonthlyAverage  float64
}

// Summary is the complete dashboard view for one selection.
type Summary struct {
	Selection
	Daily         []DailyUsage   // ascending by date
	YearlyByMonth []MonthlyUsage // ascending by month, months present only
	MB            Stats
	Converted     Stats // MB converted into Selection.Unit
}

// Convert scales every figure by the unit factor. Sums are taken before
// conversion, so the result equals converting each addend.
func (s Stats) Convert(unit Unit) Stats {
	return Stats{
		MonthlyTotal:    Convert(s.MonthlyTotal, unit),
		MonthlyAvgDaily: Convert(s.MonthlyAvgDaily, unit),
		YearlyTotal:     Convert(s.YearlyTotal, unit),
		MonthlyAverage:  Convert(s.MonthlyAverage, unit),
	}
}

// GroupByDate sums consumption per calendar date, ascending, and fills
// Usage in the given unit.
func GroupByDate(d Dataset, unit Unit) []DailyUsage {
	totals := make(map[time.Time]float64)
	for _, r := range d.records {
		totals[r.Day()] += r.MBConsumption
	}
	days := lo.Keys(totals)
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]DailyUsage, 0, len(days))
	for _, day := range days {
		mb := totals[day]
		out = append(out, DailyUsage{Date: day, TotalMB: mb, Usage: Convert(mb, unit)})
	}
	return out
}

// GroupByMonth sums consumption per month, ascending, months present only.
func GroupByMonth(d Dataset, unit Unit) []MonthlyUsage {
	totals := make(map[int]float64)
	for _, r := range d.records {
		totals[r.Month()] += r.MBConsumption
	}
	months := lo.Keys(totals)
	sort.Ints(months)

	out := make([]MonthlyUsage, 0, len(months))
	for _, m := range months {
		mb := totals[m]
		out = append(out, MonthlyUsage{Month: m, TotalMB: mb, Usage: Convert(mb, unit)})
	}
	return out
}

// Summarize computes the dashboard view for sel. Empty inputs give zero
// statistics and empty series.
func Summarize(d Dataset, sel Selection) Summary {
	if !sel.Unit.Valid() {
		sel.Unit = MB
	}
	month := d.Filter(sel.Year, sel.Month)
	daily := GroupByDate(month, sel.Unit)
	yearly := GroupByMonth(d.FilterYear(sel.Year), sel.Unit)

	var mb Stats
	mb.MonthlyTotal = month.TotalMB()
	if len(daily) > 0 {
		mb.MonthlyAvgDaily = mb.MonthlyTotal / float64(len(daily))
	}
	mb.YearlyTotal = lo.SumBy(yearly, func(m MonthlyUsage) float64 { return m.TotalMB })
	if len(yearly) > 0 {
		mb.MonthlyAverage = mb.YearlyTotal / float64(len(yearly))
	}

	return Summary{
		Selection:     sel,
		Daily:         daily,
		YearlyByMonth: yearly,
		MB:            mb,
		Converted:     mb.Convert(sel.Unit),
	}
}

// Years returns the distinct years present, ascending.
func (d Dataset) Years() []int {
	years := lo.Uniq(lo.Map(d.records, func(r Record, _ int) int { return r.Year() }))
	sort.Ints(years)
	return years
}

// Months returns the distinct months present across all years, ascending.
func (d Dataset) Months() []int {
	months := lo.Uniq(lo.Map(d.records, func(r Record, _ int) int { return r.Month() }))
	sort.Ints(months)
	return months
}

// DefaultSelection picks the most recent year and its latest month.
// An empty dataset gives the zero year and month.
func (d Dataset) DefaultSelection(unit Unit) Selection {
	sel := Selection{Unit: unit}
	if !sel.Unit.Valid() {
		sel.Unit = MB
	}
	years := d.Years()
	if len(years) == 0 {
		return sel
	}
	sel.Year = years[len(years)-1]
	months := d.FilterYear(sel.Year).Months()
	sel.Month = months[len(months)-1]
	return sel
}

// Span returns the first and last start dates. ok is false when empty.
func (d Dataset) Span() (first, last time.Time, ok bool) {
	if len(d.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.records[0].StartDate, d.records[len(d.records)-1].StartDate, true
}
