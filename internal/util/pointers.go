package util

import "math"

func Float64Pointer(f float64) *float64 {
	return &f
}

// NullableFloats maps NaN and infinities to nil so the slice survives
// encoding/json.
func NullableFloats(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = Float64Pointer(v)
	}
	return out
}

// NullableFloat is the scalar form of NullableFloats.
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FromNullable maps nil back to NaN.
func FromNullable(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}
