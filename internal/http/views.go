package http

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"netusage/internal/chart"
	"netusage/internal/core"
	"netusage/internal/session"
)

const (
	pageTitle     = "Internet Usage Viewer"
	dashboardHead = "Internet Usage Dashboard"
	uploadPrompt  = "Upload a CSV file to begin. Format: Ip-Mac, Start Date, Start Time, End Date, End Time, MB Consumption"
)

var templateFuncs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}

type banner struct {
	Kind    string // success, info or error
	Message string
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type metricView struct {
	Label string
	Value string
}

type rowView struct {
	Label string
	Value string
}

type summaryView struct {
	Year      int
	Month     int
	MonthName string
	YearMonth string
	Unit      string
	Metrics   []metricView
	Days      []rowView
	Months    []rowView
	ChartURL  string
	Empty     bool
}

type pageData struct {
	Title       string
	Heading     string
	Banners     []banner
	HasData     bool
	Source      string
	SourceKind  string
	Report      core.LoadReport
	Years       []option
	Months      []option
	Units       []option
	Summary     *summaryView
	UploadLimit string
}

func (s *Server) newPageData() pageData {
	return pageData{
		Title:       pageTitle,
		Heading:     dashboardHead,
		UploadLimit: humanize.IBytes(uint64(s.cfg.Data.UploadMaxBytes)),
	}
}

// withSession fills the controls and the summary for sel.
func (p *pageData) withSession(sess *session.Session, sel core.Selection) {
	p.HasData = true
	p.Source = sess.Source
	p.SourceKind = sess.SourceKind
	p.Report = sess.Report

	p.Years = lo.Map(sess.Dataset.Years(), func(y int, _ int) option {
		return option{Value: strconv.Itoa(y), Label: strconv.Itoa(y), Selected: y == sel.Year}
	})
	p.Months = lo.Map(sess.Dataset.Months(), func(m int, _ int) option {
		return option{Value: strconv.Itoa(m), Label: core.MonthName(m), Selected: m == sel.Month}
	})
	p.Units = unitOptions(sel.Unit)

	view := newSummaryView(sess.Summary(sel))
	p.Summary = &view
}

func unitOptions(selected core.Unit) []option {
	return lo.Map(core.Units, func(u core.Unit, _ int) option {
		return option{Value: u.String(), Label: u.String(), Selected: u == selected}
	})
}

func newSummaryView(sum core.Summary) summaryView {
	unit := sum.Unit
	return summaryView{
		Year:      sum.Year,
		Month:     sum.Month,
		MonthName: core.MonthName(sum.Month),
		YearMonth: fmt.Sprintf("%d-%02d", sum.Year, sum.Month),
		Unit:      unit.String(),
		Metrics: []metricView{
			{Label: "Monthly Total", Value: core.FormatQuantity(sum.Converted.MonthlyTotal, unit)},
			{Label: "Avg Daily (in Month)", Value: core.FormatQuantity(sum.Converted.MonthlyAvgDaily, unit)},
			{Label: "Yearly Total", Value: core.FormatQuantity(sum.Converted.YearlyTotal, unit)},
			{Label: "Average Monthly Usage (in Year)", Value: core.FormatQuantity(sum.Converted.MonthlyAverage, unit)},
		},
		Days: lo.Map(sum.Daily, func(d core.DailyUsage, _ int) rowView {
			return rowView{Label: d.Date.Format("2006-01-02"), Value: core.FormatNumber(d.Usage)}
		}),
		Months: lo.Map(sum.YearlyByMonth, func(m core.MonthlyUsage, _ int) rowView {
			return rowView{Label: core.MonthName(m.Month), Value: core.FormatNumber(m.Usage)}
		}),
		ChartURL: "/chart.svg?" + selectionQuery(sum.Selection),
		Empty:    len(sum.Daily) == 0,
	}
}

func selectionQuery(sel core.Selection) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(sel.Year))
	q.Set("month", strconv.Itoa(sel.Month))
	q.Set("unit", sel.Unit.String())
	return q.Encode()
}

func chartFormat(path string) chart.Format {
	if path == "/chart.png" {
		return chart.PNG
	}
	return chart.SVG
}
