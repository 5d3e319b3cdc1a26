package api

import (
	"context"
	"fmt"

	"factorlens/internal/domain"
	"factorlens/internal/util"
)

// panelInput carries a panel inline. Missing cells are null.
type panelInput struct {
	Dates  []string                `json:"dates"`
	Assets []string                `json:"assets"`
	Fields map[string][][]*float64 `json:"fields"`
}

func (p panelInput) toDomain() (*domain.Panel, error) {
	dates, err := util.ParseDates(p.Dates)
	if err != nil {
		return nil, domain.InvalidInputError{Err: err}
	}
	if len(p.Assets) == 0 {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("panel has no assets")}
	}

	panel := domain.NewPanel(dates, p.Assets)
	for name, rows := range p.Fields {
		if name == domain.FieldModifiedFactor {
			return nil, domain.InvalidInputError{Err: fmt.Errorf("%s is reserved for the factor under test", name)}
		}
		if err := panel.SetField(name, toMatrix(rows)); err != nil {
			return nil, domain.InvalidInputError{Err: fmt.Errorf("field %s: %w", name, err)}
		}
	}
	return panel, nil
}

func toMatrix(rows [][]*float64) domain.Matrix {
	out := make(domain.Matrix, len(rows))
	for i, row := range rows {
		out[i] = util.FromNullable(row)
	}
	return out
}

// factorInput names the factor under test either cell by cell or as an
// expression over panel fields.
type factorInput struct {
	Factor     [][]*float64 `json:"factor"`
	Expression string       `json:"expression"`
}

func (m ApiHandler) resolvePanel(in *panelInput) (*domain.Panel, error) {
	if in != nil {
		return in.toDomain()
	}
	if m.Panel == nil {
		return nil, errNoPanel
	}
	return m.Panel.Copy(), nil
}

func (m ApiHandler) resolveFactor(ctx context.Context, env domain.PanelDataSource, in factorInput) (domain.Matrix, error) {
	switch {
	case in.Factor != nil && in.Expression != "":
		return nil, domain.InvalidInputError{Err: fmt.Errorf("provide either factor or expression, not both")}
	case in.Factor != nil:
		return toMatrix(in.Factor), nil
	case in.Expression != "":
		return m.FactorExpressionService.CalculateFactor(ctx, env, in.Expression)
	}
	return nil, domain.InvalidInputError{Err: fmt.Errorf("factor or expression is required")}
}
