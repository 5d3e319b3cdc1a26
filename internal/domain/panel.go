package domain

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// field names every panel handed to a tester must carry
const (
	FieldFutureReturn = "_FutureReturn"
	FieldMktVal       = "MktVal"
	FieldSector       = "Sector"
	FieldClose        = "Close"

	// FieldModifiedFactor is where testers stage the factor under test
	FieldModifiedFactor = "modified_factor"
)

var RequiredFields = []string{
	FieldFutureReturn,
	FieldMktVal,
	FieldSector,
	FieldClose,
}

// Matrix is a dates x assets table. NaN marks a missing value.
type Matrix [][]float64

func NewMatrix(rows, cols int, fill float64) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = fill
		}
	}
	return m
}

// Shape returns (rows, cols). A ragged matrix reports the
// width of its first row; use Validate to catch that.
func (m Matrix) Shape() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

func (m Matrix) Validate() error {
	_, cols := m.Shape()
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
	}
	return nil
}

func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// ForwardReturns converts a close price matrix into the return realized
// between each date and the next one. The last date has no forward
// return and is left NaN, as is any cell missing either price.
func ForwardReturns(close Matrix) Matrix {
	rows, cols := close.Shape()
	out := NewMatrix(rows, cols, math.NaN())
	for t := 0; t < rows-1; t++ {
		for j := 0; j < cols; j++ {
			p0, p1 := close[t][j], close[t+1][j]
			if math.IsNaN(p0) || math.IsNaN(p1) || p0 == 0 {
				continue
			}
			out[t][j] = p1/p0 - 1
		}
	}
	return out
}

// PanelDataSource is the time-indexed, asset-columned store the
// testers read from. Testers only ever write FieldModifiedFactor.
type PanelDataSource interface {
	Dates() []time.Time
	Assets() []string
	FieldNames() []string
	HasField(name string) bool
	Shape(name string) (rows int, cols int, err error)
	Row(name string, i int) ([]float64, error)
	SetField(name string, values Matrix) error
}

// Panel is the in-memory PanelDataSource. It is safe for concurrent
// readers; SetField takes the write lock, so once it returns every
// subsequent reader observes the complete field.
type Panel struct {
	mu     sync.RWMutex
	dates  []time.Time
	assets []string
	fields map[string]Matrix
}

func NewPanel(dates []time.Time, assets []string) *Panel {
	return &Panel{
		dates:  append([]time.Time(nil), dates...),
		assets: append([]string(nil), assets...),
		fields: map[string]Matrix{},
	}
}

// Copy returns a panel sharing p's stored fields. Fields are never
// mutated in place, so writes to the copy leave p untouched.
func (p *Panel) Copy() *Panel {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fields := make(map[string]Matrix, len(p.fields))
	for name, m := range p.fields {
		fields[name] = m
	}
	return &Panel{
		dates:  p.dates,
		assets: p.assets,
		fields: fields,
	}
}

func (p *Panel) Dates() []time.Time {
	return append([]time.Time(nil), p.dates...)
}

func (p *Panel) Assets() []string {
	return append([]string(nil), p.assets...)
}

func (p *Panel) FieldNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.fields))
	for name := range p.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Panel) HasField(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.fields[name]
	return ok
}

func (p *Panel) Shape(name string) (int, int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.fields[name]
	if !ok {
		return 0, 0, MissingFieldError{Field: name}
	}
	rows, cols := m.Shape()
	return rows, cols, nil
}

// Row returns a copy of one date's values for the given field.
func (p *Panel) Row(name string, i int) ([]float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.fields[name]
	if !ok {
		return nil, MissingFieldError{Field: name}
	}
	if i < 0 || i >= len(m) {
		return nil, fmt.Errorf("row %d out of range for field %s with %d rows", i, name, len(m))
	}
	return append([]float64(nil), m[i]...), nil
}

func (p *Panel) SetField(name string, values Matrix) error {
	if err := values.Validate(); err != nil {
		return fmt.Errorf("invalid values for field %s: %w", name, err)
	}
	rows, cols := values.Shape()
	if rows != len(p.dates) || (rows > 0 && cols != len(p.assets)) {
		return FactorShapeError{
			Field:    name,
			WantRows: len(p.dates),
			WantCols: len(p.assets),
			GotRows:  rows,
			GotCols:  cols,
		}
	}

	clone := values.Clone()
	p.mu.Lock()
	p.fields[name] = clone
	p.mu.Unlock()
	return nil
}

// CrossSection is a single date's slice of the panel.
type CrossSection struct {
	Date          time.Time
	Assets        []string
	Factor        []float64
	MarketValue   []float64
	ForwardReturn []float64
}

// NewCrossSection reads the staged factor, market value and forward
// return rows for date index i.
func NewCrossSection(env PanelDataSource, dates []time.Time, assets []string, i int) (CrossSection, error) {
	factor, err := env.Row(FieldModifiedFactor, i)
	if err != nil {
		return CrossSection{}, err
	}
	mktVal, err := env.Row(FieldMktVal, i)
	if err != nil {
		return CrossSection{}, err
	}
	fret, err := env.Row(FieldFutureReturn, i)
	if err != nil {
		return CrossSection{}, err
	}

	return CrossSection{
		Date:          dates[i],
		Assets:        assets,
		Factor:        factor,
		MarketValue:   mktVal,
		ForwardReturn: fret,
	}, nil
}

func (c CrossSection) Len() int {
	return len(c.Factor)
}

// DropMissingFactor keeps only the assets with a usable factor value.
// Infinite values count as missing.
func (c CrossSection) DropMissingFactor() CrossSection {
	out := CrossSection{Date: c.Date}
	for j, f := range c.Factor {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if j < len(c.Assets) {
			out.Assets = append(out.Assets, c.Assets[j])
		}
		out.Factor = append(out.Factor, f)
		out.MarketValue = append(out.MarketValue, c.MarketValue[j])
		out.ForwardReturn = append(out.ForwardReturn, c.ForwardReturn[j])
	}
	return out
}
