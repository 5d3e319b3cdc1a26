package calculator

import (
	"fmt"
	"math"
	"sort"

	"factorlens/internal/domain"
)

// AssignQuantileGroups buckets one cross-section of factor values into n
// ordered groups. Edges are the n-quantiles of the values (linear
// interpolation between order statistics); every interval is closed on
// the right and the first one also includes the minimum. Group 0 holds
// the lowest values.
//
// NaN values are assigned -1. The caller is expected to drop them
// beforehand; they are tolerated so indices line up with the input.
func AssignQuantileGroups(values []float64, n int) ([]int, error) {
	if n < 1 {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("group count must be positive, got %d", n)}
	}

	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) < n {
		return nil, fmt.Errorf("%w: %d values for %d groups", domain.ErrDegenerateCrossSection, len(sorted), n)
	}
	sort.Float64s(sorted)

	edges := quantileEdges(sorted, n)
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return nil, fmt.Errorf("%w: quantile edges are not unique", domain.ErrDegenerateCrossSection)
		}
	}

	groups := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			groups[i] = -1
			continue
		}
		// first edge >= v closes the interval v falls into
		idx := sort.SearchFloat64s(edges, v)
		if idx == 0 {
			idx = 1
		}
		groups[i] = idx - 1
	}

	return groups, nil
}

// quantileEdges returns n+1 edges over sorted (ascending, non-empty).
func quantileEdges(sorted []float64, n int) []float64 {
	last := len(sorted) - 1
	edges := make([]float64, n+1)
	for k := 0; k <= n; k++ {
		pos := float64(k) * float64(last) / float64(n)
		lo := int(math.Floor(pos))
		if lo >= last {
			edges[k] = sorted[last]
			continue
		}
		frac := pos - float64(lo)
		edges[k] = sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
	}
	edges[0] = sorted[0]
	edges[n] = sorted[last]
	return edges
}
