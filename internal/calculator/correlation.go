package calculator

import (
	"fmt"
	"math"
	"sort"

	"factorlens/internal/domain"

	"github.com/montanaflynn/stats"
)

// CrossSectionalCorrelation correlates x and y over the positions where
// both are present. It returns NaN when fewer than two such pairs exist
// or either side has no dispersion; a degenerate date never reads as 0.
func CrossSectionalCorrelation(x, y []float64, method domain.CorrelationMethod) (float64, error) {
	if len(x) != len(y) {
		return math.NaN(), fmt.Errorf("cannot correlate %d values with %d values", len(x), len(y))
	}

	xs, ys := pairwiseComplete(x, y)
	if len(xs) < 2 {
		return math.NaN(), nil
	}

	switch method {
	case domain.CorrelationMethod_Spearman:
		xs, ys = averageRanks(xs), averageRanks(ys)
	case domain.CorrelationMethod_Pearson:
	default:
		return math.NaN(), domain.InvalidInputError{Err: fmt.Errorf("unsupported correlation method %q", method)}
	}

	// stats.Pearson reports 0 for constant input; we want undefined
	for _, side := range [][]float64{xs, ys} {
		flat, err := isConstant(side)
		if err != nil {
			return math.NaN(), err
		}
		if flat {
			return math.NaN(), nil
		}
	}

	return stats.Pearson(xs, ys)
}

func pairwiseComplete(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if !usable(x[i]) || !usable(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// isConstant compares extremes rather than variance so that tiny but
// distinct values, such as 1/MktVal, still count as dispersed.
func isConstant(values []float64) (bool, error) {
	lo, err := stats.Min(values)
	if err != nil {
		return false, err
	}
	hi, err := stats.Max(values)
	if err != nil {
		return false, err
	}
	return lo == hi, nil
}

// averageRanks ranks values from 1, giving tied values the mean of the
// ranks they span.
func averageRanks(values []float64) []float64 {
	type pair struct {
		v   float64
		idx int
	}
	pairs := make([]pair, len(values))
	for i, v := range values {
		pairs[i] = pair{v, i}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].v < pairs[j].v
	})

	ranks := make([]float64, len(values))
	for start := 0; start < len(pairs); {
		end := start + 1
		for end < len(pairs) && pairs[end].v == pairs[start].v {
			end++
		}
		// ranks start..end-1 (0-based) share their average, 1-based
		avg := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			ranks[pairs[k].idx] = avg
		}
		start = end
	}
	return ranks
}
