package l3_service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"factorlens/internal/calculator"
	"factorlens/internal/domain"

	"golang.org/x/sync/errgroup"
)

type TesterState int

const (
	TesterState_Idle TesterState = iota
	TesterState_Running
	TesterState_Done
)

func (s TesterState) String() string {
	switch s {
	case TesterState_Idle:
		return "idle"
	case TesterState_Running:
		return "running"
	case TesterState_Done:
		return "done"
	}
	return fmt.Sprintf("TesterState(%d)", int(s))
}

// Tester is what both the group and IC testers share: a lifecycle and
// a quick IC-based score for a candidate factor.
type Tester interface {
	State() TesterState
	Score(ctx context.Context, factor domain.Matrix) (float64, error)
}

// baseTester holds validation, reset and dispatch shared by the testers.
// Testers embed it and guard each run with mu, so runs against one
// instance never overlap.
type baseTester struct {
	Env     domain.PanelDataSource
	Method  domain.CorrelationMethod
	Workers int

	dates  []time.Time
	assets []string

	mu    sync.Mutex
	state TesterState
}

func newBaseTester(env domain.PanelDataSource, method domain.CorrelationMethod, workers int) (*baseTester, error) {
	if env == nil {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("panel data source is required")}
	}
	if err := checkEnv(env); err != nil {
		return nil, err
	}
	dates := env.Dates()
	if len(dates) == 0 {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("cannot test a factor on a panel with 0 dates")}
	}
	if workers < 1 {
		workers = 1
	}

	return &baseTester{
		Env:     env,
		Method:  method,
		Workers: workers,
		dates:   dates,
		assets:  env.Assets(),
		state:   TesterState_Idle,
	}, nil
}

// checkEnv requires every field the testers read. Sector is not read by
// any computation yet but is still required.
func checkEnv(env domain.PanelDataSource) error {
	for _, field := range domain.RequiredFields {
		if !env.HasField(field) {
			return domain.MissingFieldError{Field: field}
		}
	}
	return nil
}

// checkFactor requires the factor to line up with the close price field.
func (b *baseTester) checkFactor(factor domain.Matrix) error {
	if err := factor.Validate(); err != nil {
		return domain.InvalidInputError{Err: fmt.Errorf("invalid factor: %w", err)}
	}
	wantRows, wantCols, err := b.Env.Shape(domain.FieldClose)
	if err != nil {
		return err
	}
	gotRows, gotCols := factor.Shape()
	if gotRows != wantRows || gotCols != wantCols {
		return domain.FactorShapeError{
			Field:    "factor",
			WantRows: wantRows,
			WantCols: wantCols,
			GotRows:  gotRows,
			GotCols:  gotCols,
		}
	}
	return nil
}

// stage writes the factor into the panel. SetField returns only once
// the field is fully written, so every worker dispatched afterwards
// reads the complete factor.
func (b *baseTester) stage(factor domain.Matrix) error {
	if err := b.Env.SetField(domain.FieldModifiedFactor, factor); err != nil {
		return fmt.Errorf("failed to stage factor: %w", err)
	}
	return nil
}

// forEachDate calls fn for date indices [0, n) on up to Workers
// goroutines. fn must only write state owned by its own index.
func (b *baseTester) forEachDate(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

func (b *baseTester) State() TesterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *baseTester) Dates() []time.Time {
	return append([]time.Time(nil), b.dates...)
}

// Score is the mean cross-sectional IC of factor against forward
// returns. It neither stages the factor nor touches stored results.
func (b *baseTester) Score(ctx context.Context, factor domain.Matrix) (float64, error) {
	if err := b.checkFactor(factor); err != nil {
		return 0, err
	}

	fret := make(domain.Matrix, len(b.dates))
	for i := range b.dates {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		row, err := b.Env.Row(domain.FieldFutureReturn, i)
		if err != nil {
			return 0, err
		}
		fret[i] = row
	}

	return calculator.MeanIc(factor, fret, b.Method)
}
