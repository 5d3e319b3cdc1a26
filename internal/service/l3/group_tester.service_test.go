package l3_service

import (
	"context"
	"math"
	"testing"
	"time"

	"factorlens/internal/domain"
	mock_domain "factorlens/internal/domain/mocks"
	"factorlens/internal/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGroupTester_RunBacktest(t *testing.T) {
	ctx := context.Background()
	approx := cmpopts.EquateApprox(0, 1e-12)

	t.Run("two groups on four assets", func(t *testing.T) {
		panel := newTestPanel(t, testPanelInput{
			Assets: []string{"A", "B", "C", "D"},
			Close:  domain.NewMatrix(2, 4, 10),
			MktVal: domain.NewMatrix(2, 4, 1),
			FutureReturn: domain.Matrix{
				{0.1, 0.2, 0.3, 0.4},
				{math.NaN(), math.NaN(), math.NaN(), math.NaN()},
			},
		})
		tester, err := NewGroupTester(panel, 2, 2)
		require.NoError(t, err)
		require.Equal(t, TesterState_Idle, tester.State())

		out, err := tester.RunBacktest(ctx, domain.Matrix{
			{1, 2, 3, 4},
			{1, 2, 3, 4},
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, out.RunID)
		require.Equal(t, domain.GroupLabels{"group_1", "group_2"}, out.Labels)
		require.Equal(t, panel.Dates(), out.Dates)
		require.Equal(t, "", cmp.Diff([][]float64{
			{0.15, 0.35},
			{0, 0},
		}, out.Returns, approx))

		require.Equal(t, TesterState_Done, tester.State())
		require.Equal(t, out, tester.Returns())
	})

	t.Run("market value weights within a group", func(t *testing.T) {
		panel := newTestPanel(t, testPanelInput{
			Assets: []string{"A", "B", "C", "D"},
			Close:  domain.NewMatrix(2, 4, 10),
			MktVal: domain.Matrix{
				{3, 1, 1, 1},
				{1, 1, 1, 1},
			},
			FutureReturn: domain.Matrix{
				{0.1, 0.5, 0.2, 0.4},
				{0, 0, 0, 0},
			},
		})
		tester, err := NewGroupTester(panel, 2, 1)
		require.NoError(t, err)

		out, err := tester.RunBacktest(ctx, domain.Matrix{
			{1, 2, 3, 4},
			{1, 2, 3, 4},
		})
		require.NoError(t, err)
		require.InDelta(t, 0.75*0.1+0.25*0.5, out.Returns[0][0], 1e-12)
		require.InDelta(t, 0.3, out.Returns[0][1], 1e-12)
	})

	t.Run("missing factor values are dropped", func(t *testing.T) {
		panel := newTestPanel(t, testPanelInput{
			Assets: []string{"A", "B", "C", "D", "E"},
			Close:  domain.NewMatrix(2, 5, 10),
			MktVal: domain.NewMatrix(2, 5, 1),
			FutureReturn: domain.Matrix{
				{0.1, 0.2, 0.3, 0.4, 9},
				{0, 0, 0, 0, 0},
			},
		})
		tester, err := NewGroupTester(panel, 2, 1)
		require.NoError(t, err)

		out, err := tester.RunBacktest(ctx, domain.Matrix{
			{1, 2, 3, 4, math.NaN()},
			{1, 2, 3, 4, 5},
		})
		require.NoError(t, err)
		require.Equal(t, "", cmp.Diff([]float64{0.15, 0.35}, out.Returns[0], approx))
	})

	t.Run("degenerate dates produce zero rows", func(t *testing.T) {
		panel := newTestPanel(t, testPanelInput{
			Assets:       []string{"A", "B", "C"},
			Close:        domain.NewMatrix(4, 3, 10),
			MktVal:       domain.NewMatrix(4, 3, 1),
			FutureReturn: domain.NewMatrix(4, 3, 0.05),
		})
		tester, err := NewGroupTester(panel, 3, 4)
		require.NoError(t, err)

		nan := math.NaN()
		out, err := tester.RunBacktest(ctx, domain.Matrix{
			{nan, nan, nan}, // empty
			{1, 2, nan},     // fewer values than groups
			{1, 1, 1},       // duplicate edges
			{1, 2, 3},
		})
		require.NoError(t, err)
		require.Equal(t, "", cmp.Diff([][]float64{
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
		}, out.Returns, approx))
		require.Equal(t, 3, out.DegenerateDates)
	})

	t.Run("mostly degenerate runs are logged as a warning", func(t *testing.T) {
		panel := newTestPanel(t, testPanelInput{
			Assets:       []string{"A", "B", "C", "D", "E"},
			Close:        domain.NewMatrix(4, 5, 10),
			MktVal:       domain.NewMatrix(4, 5, 1),
			FutureReturn: domain.NewMatrix(4, 5, 0.01),
		})
		tester, err := NewGroupTester(panel, 5, 2)
		require.NoError(t, err)

		core, logs := observer.New(zap.InfoLevel)
		lctx := logger.NewContext(ctx, zap.New(core).Sugar())

		// a sparse factor repeats zero across most of the cross-section
		out, err := tester.RunBacktest(lctx, domain.Matrix{
			{0, 0, 0, 1, 2},
			{0, 0, 0, 0, 3},
			{1, 2, 3, 4, 5},
			{0, 0, 0, 1, 2},
		})
		require.NoError(t, err)
		require.Equal(t, 2, out.DegenerateDates)
		require.Equal(t, make([]float64, 5), out.Returns[0])
		require.NotEqual(t, make([]float64, 5), out.Returns[2])

		warnings := logs.FilterLevelExact(zap.WarnLevel).All()
		require.Len(t, warnings, 1)
		require.Equal(t, int64(2), warnings[0].ContextMap()["degenerateDates"])
		require.Equal(t, int64(3), warnings[0].ContextMap()["evaluatedDates"])
	})

	t.Run("a few degenerate dates are logged at info", func(t *testing.T) {
		panel := newTestPanel(t, testPanelInput{
			Assets:       []string{"A", "B", "C"},
			Close:        domain.NewMatrix(4, 3, 10),
			MktVal:       domain.NewMatrix(4, 3, 1),
			FutureReturn: domain.NewMatrix(4, 3, 0.01),
		})
		tester, err := NewGroupTester(panel, 2, 1)
		require.NoError(t, err)

		core, logs := observer.New(zap.InfoLevel)
		lctx := logger.NewContext(ctx, zap.New(core).Sugar())

		out, err := tester.RunBacktest(lctx, domain.Matrix{
			{1, 1, 1},
			{1, 2, 3},
			{3, 2, 1},
			{1, 2, 3},
		})
		require.NoError(t, err)
		require.Equal(t, 1, out.DegenerateDates)
		require.Empty(t, logs.FilterLevelExact(zap.WarnLevel).All())
		require.Len(t, logs.FilterMessage("some dates had no usable cross-section").All(), 1)
	})

	t.Run("stages are timed on the context profile", func(t *testing.T) {
		panel, factor := randomPanel(t, 13, 5, 8)
		tester, err := NewGroupTester(panel, 2, 2)
		require.NoError(t, err)

		profile, endProfile := domain.NewProfile()
		_, err = tester.RunBacktest(domain.NewCtxWithProfile(ctx, profile), factor)
		require.NoError(t, err)
		require.Nil(t, profile.TotalMs, "the tester must not end a profile it does not own")
		endProfile()

		require.Equal(t, []string{"stage factor", "compute cross-sections", "assemble"}, profile.SpanNames())
		for _, span := range profile.Spans {
			require.NotNil(t, span.ElapsedMs)
		}
	})

	t.Run("result has one row per date and one column per group", func(t *testing.T) {
		panel, factor := randomPanel(t, 7, 30, 40)
		for _, n := range []int{1, 3, 5, 10} {
			tester, err := NewGroupTester(panel, n, 4)
			require.NoError(t, err)

			out, err := tester.RunBacktest(ctx, factor)
			require.NoError(t, err)
			rows, cols := out.Shape()
			require.Equal(t, 30, rows)
			require.Equal(t, n, cols)
			require.Equal(t, make([]float64, n), out.Returns[rows-1])
			for _, row := range out.Returns {
				require.Len(t, row, n)
			}
		}
	})

	t.Run("worker count does not change the result", func(t *testing.T) {
		panel, factor := randomPanel(t, 11, 25, 60)

		serial, err := NewGroupTester(panel, 5, 1)
		require.NoError(t, err)
		expected, err := serial.RunBacktest(ctx, factor)
		require.NoError(t, err)

		parallel, err := NewGroupTester(panel, 5, 8)
		require.NoError(t, err)
		actual, err := parallel.RunBacktest(ctx, factor)
		require.NoError(t, err)

		require.Equal(t, "", cmp.Diff(expected.Returns, actual.Returns))
	})

	t.Run("rerun overwrites the previous result", func(t *testing.T) {
		panel, factor := randomPanel(t, 3, 10, 20)
		tester, err := NewGroupTester(panel, 4, 2)
		require.NoError(t, err)

		// interior quantile edges must not land on a value for the
		// group order to mirror exactly
		for i := range factor {
			for j := range factor[i] {
				if math.IsNaN(factor[i][j]) {
					factor[i][j] = 100 + float64(j)
				}
			}
		}
		first, err := tester.RunBacktest(ctx, factor)
		require.NoError(t, err)

		negated := factor.Clone()
		for i := range negated {
			for j := range negated[i] {
				negated[i][j] = -negated[i][j]
			}
		}
		second, err := tester.RunBacktest(ctx, negated)
		require.NoError(t, err)
		require.NotEqual(t, first.RunID, second.RunID)
		require.Equal(t, second, tester.Returns())

		// reversing the factor reverses the group order
		for i := range first.Returns {
			for j := 0; j < 4; j++ {
				require.InDelta(t, first.Returns[i][j], second.Returns[i][3-j], 1e-9)
			}
		}
	})

	t.Run("failed run clears the previous result", func(t *testing.T) {
		panel, factor := randomPanel(t, 5, 6, 10)
		tester, err := NewGroupTester(panel, 2, 2)
		require.NoError(t, err)

		_, err = tester.RunBacktest(ctx, factor)
		require.NoError(t, err)
		require.NotNil(t, tester.Returns())

		_, err = tester.RunBacktest(ctx, factor[:5])
		require.ErrorAs(t, err, &domain.FactorShapeError{})
		require.Nil(t, tester.Returns())
		require.Equal(t, TesterState_Idle, tester.State())
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		panel, factor := randomPanel(t, 9, 20, 10)
		tester, err := NewGroupTester(panel, 2, 2)
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = tester.RunBacktest(cctx, factor)
		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, tester.Returns())
	})
}

func TestGroupTester_shapeMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := mock_domain.NewMockPanelDataSource(ctrl)

	dates := []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	env.EXPECT().HasField(gomock.Any()).Return(true).Times(len(domain.RequiredFields))
	env.EXPECT().Dates().Return(dates)
	env.EXPECT().Assets().Return([]string{"A", "B"})
	env.EXPECT().Shape(domain.FieldClose).Return(2, 2, nil)
	// no Row or SetField calls are expected

	tester, err := NewGroupTester(env, 2, 2)
	require.NoError(t, err)

	_, err = tester.RunBacktest(context.Background(), domain.NewMatrix(3, 2, 1))
	require.Equal(t, domain.FactorShapeError{
		Field:    "factor",
		WantRows: 2,
		WantCols: 2,
		GotRows:  3,
		GotCols:  2,
	}, err)
	require.True(t, domain.IsContractError(err))
}

func TestNewGroupTester(t *testing.T) {
	panel, _ := randomPanel(t, 1, 3, 4)

	_, err := NewGroupTester(panel, 0, 1)
	require.True(t, domain.IsContractError(err))

	// more groups than assets
	_, err = NewGroupTester(panel, 5, 1)
	require.True(t, domain.IsContractError(err))
	_, err = NewGroupTester(panel, 2000000000, 1)
	require.True(t, domain.IsContractError(err))
	_, err = NewGroupTester(panel, 4, 1)
	require.NoError(t, err)

	panel = newTestPanel(t, testPanelInput{
		Assets:        []string{"A"},
		Close:         domain.NewMatrix(2, 1, 1),
		MktVal:        domain.NewMatrix(2, 1, 1),
		FutureReturn:  domain.NewMatrix(2, 1, 0),
		SkipFieldName: domain.FieldSector,
	})
	_, err = NewGroupTester(panel, 5, 1)
	require.ErrorIs(t, err, domain.MissingFieldError{Field: domain.FieldSector})
}

func TestGroupTester_Score(t *testing.T) {
	panel := newTestPanel(t, testPanelInput{
		Assets: []string{"A", "B", "C", "D"},
		Close:  domain.NewMatrix(3, 4, 10),
		MktVal: domain.NewMatrix(3, 4, 1),
		FutureReturn: domain.Matrix{
			{0.1, 0.2, 0.3, 0.4},
			{0.4, 0.3, 0.2, 0.1},
			{math.NaN(), math.NaN(), math.NaN(), math.NaN()},
		},
	})
	tester, err := NewGroupTester(panel, 2, 1)
	require.NoError(t, err)

	score, err := tester.Score(context.Background(), domain.Matrix{
		{1, 2, 3, 4},
		{1, 2, 3, 5},
		{1, 2, 3, 4},
	})
	require.NoError(t, err)
	// second date is slightly less than perfectly anti-correlated
	require.Less(t, score, 0.1)
	require.Greater(t, score, -0.1)

	score, err = tester.Score(context.Background(), domain.Matrix{
		{1, 2, 3, 4},
		{4, 3, 2, 1},
		{1, 2, 3, 4},
	})
	require.NoError(t, err)
	require.InDelta(t, 1, score, 1e-12)

	// scoring never stages the factor
	require.False(t, panel.HasField(domain.FieldModifiedFactor))
	require.Equal(t, TesterState_Idle, tester.State())
}
