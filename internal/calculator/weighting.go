package calculator

import (
	"math"
)

// GroupWeights returns each asset's market-value weight within its own
// group. Weights of a group sum to 1 over the members with a usable
// market value; members without one, and assets with a negative group,
// get weight 0. A group whose total market value is not positive gets
// all-zero weights.
func GroupWeights(groups []int, marketValues []float64, n int) []float64 {
	totals := make([]float64, n)
	for i, g := range groups {
		if g < 0 || g >= n || !usable(marketValues[i]) {
			continue
		}
		totals[g] += marketValues[i]
	}

	weights := make([]float64, len(groups))
	for i, g := range groups {
		if g < 0 || g >= n || !usable(marketValues[i]) || totals[g] <= 0 {
			continue
		}
		weights[i] = marketValues[i] / totals[g]
	}
	return weights
}

// WeightedGroupReturns computes sum(weight * return) for each of the n
// groups. The result always has n entries; a group with no members, or
// with no usable market value, returns 0. Missing forward returns are
// skipped without renormalizing the remaining weights.
func WeightedGroupReturns(groups []int, marketValues, forwardReturns []float64, n int) []float64 {
	weights := GroupWeights(groups, marketValues, n)

	out := make([]float64, n)
	for i, g := range groups {
		if g < 0 || g >= n || !usable(forwardReturns[i]) {
			continue
		}
		out[g] += weights[i] * forwardReturns[i]
	}
	return out
}

func usable(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
