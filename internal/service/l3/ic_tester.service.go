package l3_service

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"factorlens/internal/calculator"
	"factorlens/internal/domain"
	"factorlens/internal/logger"
	"factorlens/internal/metrics"

	"github.com/google/uuid"
)

type IcTester interface {
	Tester
	// RunBacktest correlates the factor with forward returns on every
	// date. Dates where the coefficient is undefined hold NaN.
	RunBacktest(ctx context.Context, factor domain.Matrix) (*domain.IcSeries, error)
	Results() *domain.IcSeries
	Metrics() *calculator.IcSummary
}

type icTesterHandler struct {
	*baseTester

	results *domain.IcSeries
	metrics *calculator.IcSummary
}

func NewIcTester(env domain.PanelDataSource, method domain.CorrelationMethod, workers int) (IcTester, error) {
	method, err := domain.NewCorrelationMethod(string(method))
	if err != nil {
		return nil, err
	}
	base, err := newBaseTester(env, method, workers)
	if err != nil {
		return nil, err
	}
	return &icTesterHandler{
		baseTester: base,
	}, nil
}

func (h *icTesterHandler) Results() *domain.IcSeries {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.results
}

func (h *icTesterHandler) Metrics() *calculator.IcSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.metrics
}

func (h *icTesterHandler) reset() {
	h.state = TesterState_Idle
	h.results = nil
	h.metrics = nil
}

func (h *icTesterHandler) RunBacktest(ctx context.Context, factor domain.Matrix) (*domain.IcSeries, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	runID := uuid.New()
	log := logger.FromContext(ctx).With("runID", runID.String(), "tester", metrics.Tester_Ic)
	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()
	defer func() {
		metrics.RunDuration.WithLabelValues(metrics.Tester_Ic).Observe(time.Since(start).Seconds())
	}()

	h.reset()
	series, err := h.run(ctx, profile, runID, factor)
	if err != nil {
		h.reset()
		metrics.RunsTotal.WithLabelValues(metrics.Tester_Ic, metrics.Status_Error).Inc()
		log.Warnw("ic test failed", "error", err)
		return nil, err
	}

	summary := calculator.SummarizeIc(*series)
	h.results = series
	h.metrics = &summary
	h.state = TesterState_Done
	metrics.RunsTotal.WithLabelValues(metrics.Tester_Ic, metrics.Status_Success).Inc()
	log.Infow("completed ic test",
		"method", h.Method,
		"dates", len(series.Dates),
		"validDates", summary.ValidDates,
		"meanIC", summary.Mean,
		"elapsedMs", time.Since(start).Milliseconds(),
	)
	return series, nil
}

func (h *icTesterHandler) run(ctx context.Context, profile *domain.Profile, runID uuid.UUID, factor domain.Matrix) (*domain.IcSeries, error) {
	if err := h.checkFactor(factor); err != nil {
		return nil, err
	}
	h.state = TesterState_Running

	_, endSpan := profile.StartNewSpan("stage factor")
	if err := h.stage(factor); err != nil {
		return nil, err
	}
	endSpan()

	values := make([]float64, len(h.dates))
	var numUndefined atomic.Int64

	_, endSpan = profile.StartNewSpan("compute cross-sections")
	defer endSpan()
	err := h.forEachDate(ctx, len(h.dates), func(ctx context.Context, i int) error {
		ic, err := h.icOnDay(i)
		if err != nil {
			return fmt.Errorf("failed to compute ic on %s: %w", h.dates[i].Format(time.DateOnly), err)
		}
		if math.IsNaN(ic) {
			numUndefined.Add(1)
			metrics.DegenerateDates.WithLabelValues(metrics.Tester_Ic, "degenerate").Inc()
		}
		values[i] = ic
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debugw("ic series computed",
		"runID", runID.String(),
		"undefinedDates", numUndefined.Load(),
	)

	return &domain.IcSeries{
		RunID:  runID,
		Method: h.Method,
		Dates:  h.Dates(),
		Values: values,
	}, nil
}

func (h *icTesterHandler) icOnDay(i int) (float64, error) {
	factor, err := h.Env.Row(domain.FieldModifiedFactor, i)
	if err != nil {
		return math.NaN(), err
	}
	fret, err := h.Env.Row(domain.FieldFutureReturn, i)
	if err != nil {
		return math.NaN(), err
	}
	return calculator.CrossSectionalCorrelation(factor, fret, h.Method)
}
