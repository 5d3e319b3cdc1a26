package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"factorlens/internal/calculator"
	"factorlens/internal/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
)

// FormatPercent renders a fractional value as a percentage with two
// decimals. Undefined values render as "-".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

func FormatFloat(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// GroupReturnsTable shows the cumulative return of every group plus the
// top minus bottom spread. When maxRows > 0 only the last maxRows dates
// are listed.
func GroupReturnsTable(result domain.GroupReturns, maxRows int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("cumulative group returns")

	header := table.Row{"trade_date"}
	for _, label := range result.Labels {
		header = append(header, label)
	}
	header = append(header, "long_short")
	t.AppendHeader(header)

	cumulative := result.Cumulative()
	spread := cumulativeSpread(result.LongShort())

	start := 0
	if maxRows > 0 && len(cumulative) > maxRows {
		start = len(cumulative) - maxRows
	}
	for i := start; i < len(cumulative); i++ {
		row := table.Row{result.Dates[i].Format(time.DateOnly)}
		for _, c := range cumulative[i] {
			row = append(row, FormatPercent(c-1))
		}
		row = append(row, FormatPercent(spread[i]-1))
		t.AppendRow(row)
	}
	var captions []string
	if start > 0 {
		captions = append(captions, fmt.Sprintf("%d earlier dates omitted", start))
	}
	if result.DegenerateDates > 0 {
		captions = append(captions, fmt.Sprintf("%d of %d dates had no usable cross-section and hold zero returns", result.DegenerateDates, len(result.Dates)-1))
	}
	if len(captions) > 0 {
		t.SetCaption(strings.Join(captions, "; "))
	}

	return t
}

func cumulativeSpread(spread []float64) []float64 {
	out := make([]float64, len(spread))
	acc := 1.0
	for i, r := range spread {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

// IcTable lists the IC of every date with the series summary in the
// footer.
func IcTable(series domain.IcSeries, summary calculator.IcSummary, maxRows int) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s ic", series.Method))
	t.AppendHeader(table.Row{"trade_date", "ic"})

	start := 0
	if maxRows > 0 && len(series.Values) > maxRows {
		start = len(series.Values) - maxRows
	}
	for i := start; i < len(series.Values); i++ {
		t.AppendRow(table.Row{series.Dates[i].Format(time.DateOnly), FormatFloat(series.Values[i], 4)})
	}

	t.AppendFooter(table.Row{"mean", FormatFloat(summary.Mean, 4)})
	if summary.Degenerate {
		t.AppendFooter(table.Row{"ir", "degenerate"})
	} else {
		t.AppendFooter(table.Row{"stdev", FormatFloat(summary.Stdev, 4)})
		t.AppendFooter(table.Row{"ir", FormatFloat(summary.IR, 4)})
	}
	t.AppendFooter(table.Row{"valid dates", fmt.Sprintf("%d/%d", summary.ValidDates, summary.TotalDates)})
	if start > 0 {
		t.SetCaption(fmt.Sprintf("%d earlier dates omitted", start))
	}

	return t
}
