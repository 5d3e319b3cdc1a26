package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"factorlens/internal/calculator"
	"factorlens/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestFormatPercent(t *testing.T) {
	require.Equal(t, "15.00%", FormatPercent(0.15))
	require.Equal(t, "-2.35%", FormatPercent(-0.0235))
	require.Equal(t, "0.00%", FormatPercent(0))
	require.Equal(t, "-", FormatPercent(math.NaN()))
	require.Equal(t, "0.1235", FormatFloat(0.12345, 4))
	require.Equal(t, "-", FormatFloat(math.Inf(1), 4))
}

func TestGroupReturnsTable(t *testing.T) {
	dates := []time.Time{
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
	}
	result := domain.GroupReturns{
		Dates:  dates,
		Labels: domain.NewGroupLabels(2),
		Returns: [][]float64{
			{0.1, 0.2},
			{0.1, 0.5},
			{0, 0},
		},
	}

	out := GroupReturnsTable(result, 0).Render()
	require.Contains(t, out, "GROUP_1")
	require.Contains(t, out, "LONG_SHORT")
	require.Contains(t, out, "2020-01-02")
	require.Contains(t, out, "21.00%") // 1.1 * 1.1
	require.Contains(t, out, "80.00%") // 1.2 * 1.5
	require.Contains(t, out, "54.00%") // 1.1 * 1.4 spread
	require.False(t, strings.Contains(out, "omitted"))

	out = GroupReturnsTable(result, 1).Render()
	require.NotContains(t, out, "2020-01-02")
	require.Contains(t, out, "2020-01-06")
	require.Contains(t, out, "2 earlier dates omitted")
	require.NotContains(t, out, "usable cross-section")

	result.DegenerateDates = 2
	out = GroupReturnsTable(result, 1).Render()
	require.Contains(t, out, "2 earlier dates omitted; 2 of 2 dates had no usable cross-section and hold zero returns")
}

func TestIcTable(t *testing.T) {
	series := domain.IcSeries{
		Method: domain.CorrelationMethod_Spearman,
		Dates: []time.Time{
			time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		Values: []float64{0.5, math.NaN()},
	}

	out := IcTable(series, calculator.SummarizeIc(series), 0).Render()
	require.Contains(t, out, "0.5000")
	require.Contains(t, out, "DEGENERATE")
	require.Contains(t, out, "1/2")
}
