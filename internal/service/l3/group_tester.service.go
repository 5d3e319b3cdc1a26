package l3_service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"factorlens/internal/calculator"
	"factorlens/internal/domain"
	"factorlens/internal/logger"
	"factorlens/internal/metrics"

	"github.com/google/uuid"
)

type GroupTester interface {
	Tester
	// RunBacktest buckets assets into quantile groups on every date and
	// returns the weighted forward return of each group. The result is
	// also kept on the tester until the next run.
	RunBacktest(ctx context.Context, factor domain.Matrix) (*domain.GroupReturns, error)
	Returns() *domain.GroupReturns
	NumGroups() int
}

// above this share of zeroed dates a run is reported as a warning
const maxDegenerateShare = 0.5

type groupTesterHandler struct {
	*baseTester
	NGroups int

	returns *domain.GroupReturns
}

func NewGroupTester(env domain.PanelDataSource, nGroups int, workers int) (GroupTester, error) {
	if nGroups < 1 {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("group count must be positive, got %d", nGroups)}
	}
	base, err := newBaseTester(env, domain.CorrelationMethod_Pearson, workers)
	if err != nil {
		return nil, err
	}
	// every date would be degenerate
	if nGroups > len(base.assets) {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("cannot split %d assets into %d groups", len(base.assets), nGroups)}
	}
	return &groupTesterHandler{
		baseTester: base,
		NGroups:    nGroups,
	}, nil
}

func (h *groupTesterHandler) NumGroups() int {
	return h.NGroups
}

func (h *groupTesterHandler) Returns() *domain.GroupReturns {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.returns
}

func (h *groupTesterHandler) reset() {
	h.state = TesterState_Idle
	h.returns = nil
}

func (h *groupTesterHandler) RunBacktest(ctx context.Context, factor domain.Matrix) (*domain.GroupReturns, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	runID := uuid.New()
	log := logger.FromContext(ctx).With("runID", runID.String(), "tester", metrics.Tester_Group)
	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()
	defer func() {
		metrics.RunDuration.WithLabelValues(metrics.Tester_Group).Observe(time.Since(start).Seconds())
	}()

	h.reset()
	out, err := h.run(ctx, profile, runID, factor)
	if err != nil {
		h.reset()
		metrics.RunsTotal.WithLabelValues(metrics.Tester_Group, metrics.Status_Error).Inc()
		log.Warnw("group backtest failed", "error", err)
		return nil, err
	}

	h.returns = out
	h.state = TesterState_Done
	metrics.RunsTotal.WithLabelValues(metrics.Tester_Group, metrics.Status_Success).Inc()
	log.Infow("completed group backtest",
		"dates", len(out.Dates),
		"groups", h.NGroups,
		"elapsedMs", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (h *groupTesterHandler) run(ctx context.Context, profile *domain.Profile, runID uuid.UUID, factor domain.Matrix) (*domain.GroupReturns, error) {
	log := logger.FromContext(ctx)

	if err := h.checkFactor(factor); err != nil {
		return nil, err
	}
	h.state = TesterState_Running

	_, endSpan := profile.StartNewSpan("stage factor")
	if err := h.stage(factor); err != nil {
		return nil, err
	}
	endSpan()

	labels := domain.NewGroupLabels(h.NGroups)
	numDates := len(h.dates)
	rows := make([][]float64, numDates)
	var numDegenerate atomic.Int64

	// the last date has no realized forward return
	_, endSpan = profile.StartNewSpan("compute cross-sections")
	err := h.forEachDate(ctx, numDates-1, func(ctx context.Context, i int) error {
		row, reason, err := h.groupReturnsOnDay(i)
		if err != nil {
			return fmt.Errorf("failed to compute group returns on %s: %w", h.dates[i].Format(time.DateOnly), err)
		}
		if reason != "" {
			numDegenerate.Add(1)
			metrics.DegenerateDates.WithLabelValues(metrics.Tester_Group, reason).Inc()
			log.Debugw("zero group returns for degenerate cross-section",
				"runID", runID.String(),
				"date", h.dates[i].Format(time.DateOnly),
				"reason", reason,
			)
		}
		rows[i] = row
		return nil
	})
	endSpan()
	if err != nil {
		return nil, err
	}

	_, endSpan = profile.StartNewSpan("assemble")
	defer endSpan()
	rows[numDates-1] = make([]float64, h.NGroups)

	degenerate := int(numDegenerate.Load())
	if evaluated := numDates - 1; degenerate > 0 {
		fields := []interface{}{"runID", runID.String(), "degenerateDates", degenerate, "evaluatedDates", evaluated}
		if float64(degenerate) > maxDegenerateShare*float64(evaluated) {
			log.Warnw("most dates had no usable cross-section; group returns are mostly zero", fields...)
		} else {
			log.Infow("some dates had no usable cross-section", fields...)
		}
	}

	return &domain.GroupReturns{
		RunID:           runID,
		Dates:           h.Dates(),
		Labels:          labels,
		Returns:         rows,
		DegenerateDates: degenerate,
	}, nil
}

// groupReturnsOnDay returns the N group returns for date index i. When
// the cross-section cannot be bucketed the row is all zeros and reason
// says why.
func (h *groupTesterHandler) groupReturnsOnDay(i int) (row []float64, reason string, err error) {
	cs, err := domain.NewCrossSection(h.Env, h.dates, h.assets, i)
	if err != nil {
		return nil, "", err
	}

	cs = cs.DropMissingFactor()
	if cs.Len() == 0 {
		return make([]float64, h.NGroups), "empty", nil
	}

	groups, err := calculator.AssignQuantileGroups(cs.Factor, h.NGroups)
	if errors.Is(err, domain.ErrDegenerateCrossSection) {
		return make([]float64, h.NGroups), "degenerate", nil
	} else if err != nil {
		return nil, "", err
	}

	return calculator.WeightedGroupReturns(groups, cs.MarketValue, cs.ForwardReturn, h.NGroups), "", nil
}
