package l2_service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"factorlens/internal/domain"
	"factorlens/internal/logger"
	"factorlens/internal/metrics"

	"github.com/maja42/goval"
)

// FactorExpressionService turns an expression over panel fields, such as
// "Close / MktVal", into a factor matrix that can be handed to a tester.
type FactorExpressionService interface {
	CalculateFactor(ctx context.Context, env domain.PanelDataSource, factorExpression string) (domain.Matrix, error)
}

type factorExpressionServiceHandler struct {
	NumGoroutines int
}

func NewFactorExpressionService(numGoroutines int) FactorExpressionService {
	if numGoroutines < 1 {
		numGoroutines = 1
	}
	return factorExpressionServiceHandler{
		NumGoroutines: numGoroutines,
	}
}

// fields an expression may not read; the first is the quantity the
// factor is meant to predict
var hiddenFields = map[string]bool{
	domain.FieldFutureReturn:   true,
	domain.FieldModifiedFactor: true,
}

type workInput struct {
	DateIndex int
}

type workResult struct {
	DateIndex int
	Values    []float64
	Err       error
}

// CalculateFactor evaluates the expression once per (date, asset) cell.
// Dates are spread across workers; a NaN or infinite result marks the
// cell missing.
func (h factorExpressionServiceHandler) CalculateFactor(ctx context.Context, env domain.PanelDataSource, factorExpression string) (domain.Matrix, error) {
	log := logger.FromContext(ctx)
	profile, endProfile := domain.GetProfile(ctx)
	defer endProfile()

	dates := env.Dates()
	assets := env.Assets()
	if len(dates) == 0 {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("cannot calculate factor on a panel with 0 dates")}
	}

	fields := []string{}
	for _, name := range env.FieldNames() {
		if !hiddenFields[name] {
			fields = append(fields, name)
		}
	}

	// fail fast on syntax or unknown names before fanning out
	if _, err := evaluateFactorExpression(factorExpression, sampleVariables(fields), ""); err != nil {
		return nil, domain.InvalidInputError{Err: err}
	}

	inputCh := make(chan workInput, len(dates))
	resultCh := make(chan workResult, len(dates))
	var wg sync.WaitGroup
	for i := range dates {
		wg.Add(1)
		inputCh <- workInput{DateIndex: i}
	}
	close(inputCh)

	_, endSpan := profile.StartNewSpan("evaluate factor expression")
	start := time.Now()
	for i := 0; i < h.NumGoroutines; i++ {
		go func() {
			for input := range inputCh {
				if err := ctx.Err(); err != nil {
					resultCh <- workResult{DateIndex: input.DateIndex, Err: err}
					wg.Done()
					continue
				}
				values, err := h.calculateOnDay(env, fields, dates[input.DateIndex], assets, input.DateIndex, factorExpression)
				if err != nil {
					err = fmt.Errorf("failed to compute factor on %s: %w", dates[input.DateIndex].Format(time.DateOnly), err)
				}
				resultCh <- workResult{
					DateIndex: input.DateIndex,
					Values:    values,
					Err:       err,
				}
				wg.Done()
			}
		}()
	}

	wg.Wait()
	close(resultCh)
	endSpan()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(domain.Matrix, len(dates))
	var firstErr error
	firstErrIdx := len(dates)
	for res := range resultCh {
		if res.Err != nil {
			if res.DateIndex < firstErrIdx {
				firstErr, firstErrIdx = res.Err, res.DateIndex
			}
			continue
		}
		out[res.DateIndex] = res.Values
	}
	if firstErr != nil {
		return nil, firstErr
	}

	metrics.ExpressionCells.Add(float64(len(dates) * len(assets)))
	log.Debugw("calculated factor from expression",
		"expression", factorExpression,
		"dates", len(dates),
		"assets", len(assets),
		"elapsedMs", time.Since(start).Milliseconds(),
	)

	return out, nil
}

func (h factorExpressionServiceHandler) calculateOnDay(
	env domain.PanelDataSource,
	fields []string,
	date time.Time,
	assets []string,
	i int,
	factorExpression string,
) ([]float64, error) {
	rows := make(map[string][]float64, len(fields))
	for _, name := range fields {
		row, err := env.Row(name, i)
		if err != nil {
			return nil, err
		}
		rows[name] = row
	}

	out := make([]float64, len(assets))
	variables := map[string]interface{}{
		"currentDate": date.Format(time.DateOnly),
	}
	for j, asset := range assets {
		for name, row := range rows {
			variables[name] = row[j]
		}
		v, err := evaluateFactorExpression(factorExpression, variables, asset)
		if err != nil {
			return nil, fmt.Errorf("failed on %s: %w", asset, err)
		}
		out[j] = v
	}
	return out, nil
}

func sampleVariables(fields []string) map[string]interface{} {
	variables := map[string]interface{}{
		"currentDate": "2000-01-01",
	}
	for _, name := range fields {
		variables[name] = 1.0
	}
	return variables
}

func evaluateFactorExpression(expression string, variables map[string]interface{}, asset string) (float64, error) {
	eval := goval.NewEvaluator()
	variables["asset"] = asset
	result, err := eval.Evaluate(expression, variables, functions)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate factor expression: %w", err)
	}

	r, err := toFloat(result)
	if err != nil {
		return 0, fmt.Errorf("expression result: %w", err)
	}
	if math.IsInf(r, 0) {
		r = math.NaN()
	}
	return r, nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	}
	return 0, fmt.Errorf("failed to convert %v (%T) to float", v, v)
}

func unary(name string, f func(float64) float64) goval.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("%s needs 1 arg, got %d", name, len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return 0, err
		}
		return f(x), nil
	}
}

func binary(name string, f func(float64, float64) float64) goval.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return 0, fmt.Errorf("%s needs 2 args, got %d", name, len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return 0, err
		}
		y, err := toFloat(args[1])
		if err != nil {
			return 0, err
		}
		return f(x, y), nil
	}
}

var functions = map[string]goval.ExpressionFunction{
	"abs":  unary("abs", math.Abs),
	"log":  unary("log", math.Log),
	"exp":  unary("exp", math.Exp),
	"sqrt": unary("sqrt", math.Sqrt),
	"sign": unary("sign", func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return x
	}),
	"pow": binary("pow", math.Pow),
	"min": binary("min", math.Min),
	"max": binary("max", math.Max),
	"nan": func(args ...interface{}) (interface{}, error) {
		return math.NaN(), nil
	},
	// fillna(x, v) replaces a missing x with v
	"fillna": binary("fillna", func(x, v float64) float64 {
		if math.IsNaN(x) {
			return v
		}
		return x
	}),
}
