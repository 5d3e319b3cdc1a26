package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GroupLabels []string

// NewGroupLabels returns group_1..group_n, group_1 holding the lowest
// factor values.
func NewGroupLabels(n int) GroupLabels {
	labels := make(GroupLabels, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("group_%d", i+1)
	}
	return labels
}

func (l GroupLabels) Index(label string) int {
	for i, x := range l {
		if x == label {
			return i
		}
	}
	return -1
}

// GroupReturns is the result panel of a grouped backtest. Row i holds the
// weighted forward return of every group formed on Dates[i]; the last
// row is always zero because the final date has no forward return.
type GroupReturns struct {
	RunID   uuid.UUID   `json:"runID"`
	Dates   []time.Time `json:"dates"`
	Labels  GroupLabels `json:"labels"`
	Returns [][]float64 `json:"returns"`
	// DegenerateDates counts the zero rows written for dates that could
	// not be bucketed. The terminal row is not included.
	DegenerateDates int `json:"degenerateDates"`
}

func (g GroupReturns) Shape() (int, int) {
	return len(g.Returns), len(g.Labels)
}

func (g GroupReturns) Column(label string) ([]float64, error) {
	idx := g.Labels.Index(label)
	if idx < 0 {
		return nil, fmt.Errorf("unknown group label %s", label)
	}
	out := make([]float64, len(g.Returns))
	for i, row := range g.Returns {
		out[i] = row[idx]
	}
	return out, nil
}

// Cumulative compounds each group's returns: the running product of
// (1 + r) up to and including each date.
func (g GroupReturns) Cumulative() [][]float64 {
	out := make([][]float64, len(g.Returns))
	acc := make([]float64, len(g.Labels))
	for j := range acc {
		acc[j] = 1
	}
	for i, row := range g.Returns {
		out[i] = make([]float64, len(row))
		for j, r := range row {
			acc[j] *= 1 + r
			out[i][j] = acc[j]
		}
	}
	return out
}

// LongShort is the top group's return minus the bottom group's, per date.
func (g GroupReturns) LongShort() []float64 {
	out := make([]float64, len(g.Returns))
	if len(g.Labels) == 0 {
		return out
	}
	last := len(g.Labels) - 1
	for i, row := range g.Returns {
		out[i] = row[last] - row[0]
	}
	return out
}

type CorrelationMethod string

const (
	CorrelationMethod_Pearson  CorrelationMethod = "pearson"
	CorrelationMethod_Spearman CorrelationMethod = "spearman"
)

func NewCorrelationMethod(s string) (CorrelationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(CorrelationMethod_Pearson):
		return CorrelationMethod_Pearson, nil
	case string(CorrelationMethod_Spearman):
		return CorrelationMethod_Spearman, nil
	}
	return "", InvalidInputError{fmt.Errorf("unsupported correlation method %q", s)}
}

// IcSeries holds one cross-sectional correlation per date. NaN marks a
// date where the coefficient is undefined.
type IcSeries struct {
	RunID  uuid.UUID         `json:"runID"`
	Method CorrelationMethod `json:"method"`
	Dates  []time.Time       `json:"dates"`
	Values []float64         `json:"-"`
}

// Mean is the average IC over dates where it is defined, NaN if none is.
func (s IcSeries) Mean() float64 {
	sum := 0.0
	n := 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Defined returns the non-NaN coefficients in date order.
func (s IcSeries) Defined() []float64 {
	out := []float64{}
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
