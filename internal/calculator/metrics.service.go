package calculator

import (
	"math"

	"factorlens/internal/domain"

	"github.com/montanaflynn/stats"
)

type IcSummary struct {
	Mean       float64 `json:"mean"`
	Stdev      float64 `json:"stdev"`
	IR         float64 `json:"ir"`
	AbsIR      float64 `json:"absIR"`
	ValidDates int     `json:"validDates"`
	TotalDates int     `json:"totalDates"`
	// Degenerate is set when the IC series has no usable dispersion, in
	// which case Stdev, IR and AbsIR are NaN and must not be used
	Degenerate bool `json:"degenerate"`
}

// SummarizeIc calculates the mean IC over the dates where it is defined
// and the information ratio mean/stdev built on top of it. A series
// with fewer than two defined values or zero stdev is reported as
// degenerate rather than as an error.
func SummarizeIc(series domain.IcSeries) IcSummary {
	defined := series.Defined()
	out := IcSummary{
		Mean:       series.Mean(),
		Stdev:      math.NaN(),
		IR:         math.NaN(),
		AbsIR:      math.NaN(),
		ValidDates: len(defined),
		TotalDates: len(series.Values),
	}

	if len(defined) < 2 {
		out.Degenerate = true
		return out
	}

	stdev, err := stats.StandardDeviationSample(defined)
	if err != nil || stdev == 0 || math.IsNaN(stdev) {
		out.Degenerate = true
		return out
	}

	out.Stdev = stdev
	out.IR = out.Mean / stdev
	out.AbsIR = math.Abs(out.IR)
	return out
}

// MeanIc correlates factor against forward returns on every date and
// averages the defined coefficients. Used to score a factor without
// running a full test.
func MeanIc(factor, forwardReturns domain.Matrix, method domain.CorrelationMethod) (float64, error) {
	values := make([]float64, len(factor))
	for i := range factor {
		ic, err := CrossSectionalCorrelation(factor[i], forwardReturns[i], method)
		if err != nil {
			return math.NaN(), err
		}
		values[i] = ic
	}
	return domain.IcSeries{Values: values}.Mean(), nil
}
