// Package chart draws the daily usage bar chart.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"netusage/internal/core"
)

// Format is an output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

const (
	Title  = "Daily Internet Usage"
	XLabel = "Date"

	width  = 1024
	height = 480
)

var (
	ErrNoData        = errors.New("no data to chart")
	ErrUnknownFormat = errors.New("unknown chart format")

	barColor = drawing.ColorFromHex("6495ED") // cornflowerblue
)

// YLabel is the value axis label for unit.
func YLabel(unit core.Unit) string {
	return fmt.Sprintf("Usage (%s)", unit)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Daily renders one bar per day, heights in the summary's unit.
func Daily(w io.Writer, f Format, unit core.Unit, days []core.DailyUsage) error {
	if len(days) == 0 {
		return ErrNoData
	}
	var provider chart.RendererProvider
	switch f {
	case SVG:
		provider = chart.SVG
	case PNG:
		provider = chart.PNG
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	bc := build(unit, days)
	if err := bc.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", f, err)
	}
	return nil
}

func build(unit core.Unit, days []core.DailyUsage) chart.BarChart {
	bars := lo.Map(days, func(d core.DailyUsage, _ int) chart.Value {
		return chart.Value{
			Label: d.Date.Format("2006-01-02"),
			Value: d.Usage,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1},
		}
	})

	return chart.BarChart{
		Title:      Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(len(days)),
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 72}},
		XAxis:      chart.Style{TextRotationDegrees: 45.0, FontSize: 8},
		YAxis: chart.YAxis{
			Name:  YLabel(unit),
			Range: yRange(days),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return core.FormatNumber(f)
				}
				return ""
			},
		},
		Bars: bars,
	}
}

// yRange starts at zero. go-chart refuses a zero-height range, so an all-zero
// series gets 0..1.
func yRange(days []core.DailyUsage) *chart.ContinuousRange {
	maxV := lo.MaxBy(days, func(a, b core.DailyUsage) bool { return a.Usage > b.Usage }).Usage
	if maxV <= 0 {
		maxV = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: maxV * 1.05}
}

func barWidth(n int) int {
	w := (width - 200) / (n * 2)
	switch {
	case w > 60:
		return 60
	case w < 4:
		return 4
	}
	return w
}
