package calculator

import (
	"math"
	"testing"

	"factorlens/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCrossSectionalCorrelation(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		x, y   []float64
		method domain.CorrelationMethod
		want   float64
	}{
		{
			name:   "perfect linear pearson",
			x:      []float64{1, 2, 3, 4},
			y:      []float64{2, 4, 6, 8},
			method: domain.CorrelationMethod_Pearson,
			want:   1,
		},
		{
			name:   "perfect inverse pearson",
			x:      []float64{1, 2, 3, 4},
			y:      []float64{4, 3, 2, 1},
			method: domain.CorrelationMethod_Pearson,
			want:   -1,
		},
		{
			name:   "monotonic but not linear is 1 under spearman",
			x:      []float64{1, 2, 3, 4, 5},
			y:      []float64{1, 4, 9, 16, 1000},
			method: domain.CorrelationMethod_Spearman,
			want:   1,
		},
		{
			name:   "factor scaled to 1e-10 keeps its correlation",
			x:      []float64{1e-10, 2e-10, 3e-10, 4e-10},
			y:      []float64{0.01, 0.02, 0.03, 0.04},
			method: domain.CorrelationMethod_Pearson,
			want:   1,
		},
		{
			name:   "returns scaled to 1e-10 keep their correlation",
			x:      []float64{1, 2, 3, 4},
			y:      []float64{1e-10, 2e-10, 3e-10, 4e-10},
			method: domain.CorrelationMethod_Pearson,
			want:   1,
		},
		{
			name:   "tiny factor under spearman",
			x:      []float64{4e-12, 1e-12, 3e-12, 2e-12},
			y:      []float64{0.4, 0.1, 0.3, 0.2},
			method: domain.CorrelationMethod_Spearman,
			want:   1,
		},
		{
			name:   "missing pairs are excluded",
			x:      []float64{1, nan, 3, 4, 10},
			y:      []float64{2, 100, 6, 8, nan},
			method: domain.CorrelationMethod_Pearson,
			want:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CrossSectionalCorrelation(tt.x, tt.y, tt.method)
			require.NoError(t, err)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}

	t.Run("constant factor is undefined, not zero", func(t *testing.T) {
		for _, method := range []domain.CorrelationMethod{domain.CorrelationMethod_Pearson, domain.CorrelationMethod_Spearman} {
			got, err := CrossSectionalCorrelation([]float64{3, 3, 3}, []float64{0.1, 0.2, 0.3}, method)
			require.NoError(t, err)
			require.True(t, math.IsNaN(got))
		}
	})

	t.Run("constant tiny returns are undefined", func(t *testing.T) {
		got, err := CrossSectionalCorrelation([]float64{1, 2, 3}, []float64{1e-12, 1e-12, 1e-12}, domain.CorrelationMethod_Pearson)
		require.NoError(t, err)
		require.True(t, math.IsNaN(got))
	})

	t.Run("fewer than two pairs is undefined", func(t *testing.T) {
		got, err := CrossSectionalCorrelation([]float64{1, nan}, []float64{0.1, 0.2}, domain.CorrelationMethod_Pearson)
		require.NoError(t, err)
		require.True(t, math.IsNaN(got))
	})

	t.Run("length mismatch errors", func(t *testing.T) {
		_, err := CrossSectionalCorrelation([]float64{1, 2}, []float64{1}, domain.CorrelationMethod_Pearson)
		require.Error(t, err)
	})

	t.Run("unknown method errors", func(t *testing.T) {
		_, err := CrossSectionalCorrelation([]float64{1, 2}, []float64{1, 2}, "kendall")
		require.True(t, domain.IsContractError(err))
	})
}

func Test_averageRanks(t *testing.T) {
	require.Equal(t, "", cmp.Diff(
		[]float64{1, 2.5, 2.5, 4},
		averageRanks([]float64{10, 20, 20, 30}),
	))
	require.Equal(t, "", cmp.Diff(
		[]float64{3, 1, 2},
		averageRanks([]float64{0.5, -1, 0}),
	))
}
