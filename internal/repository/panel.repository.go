package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"factorlens/internal/domain"
	"factorlens/internal/logger"
	"factorlens/internal/util"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const dateColumn = "trade_date"

// cells read as missing
var nanValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// PanelRepository reads panels stored as one wide CSV per field:
// <dir>/<Field>.csv with a trade_date column followed by one column per
// asset.
type PanelRepository interface {
	Load(ctx context.Context, dir string) (*domain.Panel, error)
	LoadFactor(path string, env domain.PanelDataSource) (domain.Matrix, error)
}

type panelRepositoryHandler struct{}

func NewPanelRepository() PanelRepository {
	return panelRepositoryHandler{}
}

type wideTable struct {
	Dates  []time.Time
	Assets []string
	Values domain.Matrix
}

func (h panelRepositoryHandler) Load(ctx context.Context, dir string) (*domain.Panel, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list panel directory: %w", err)
	}

	files := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("no field files found in %s", dir)}
	}

	var panel *domain.Panel
	var index *wideTable
	for _, file := range files {
		field := strings.TrimSuffix(file, filepath.Ext(file))
		if field == domain.FieldModifiedFactor {
			return nil, domain.InvalidInputError{Err: fmt.Errorf("%s is reserved for the factor under test", field)}
		}

		table, err := readWideFile(filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to load field %s: %w", field, err)
		}

		if index == nil {
			index = table
			panel = domain.NewPanel(table.Dates, table.Assets)
		}
		values, err := alignTo(index, table)
		if err != nil {
			return nil, fmt.Errorf("failed to load field %s: %w", field, err)
		}
		if err := panel.SetField(field, values); err != nil {
			return nil, err
		}
	}

	if !panel.HasField(domain.FieldFutureReturn) && panel.HasField(domain.FieldClose) {
		closeRows := make(domain.Matrix, len(index.Dates))
		for i := range closeRows {
			closeRows[i], err = panel.Row(domain.FieldClose, i)
			if err != nil {
				return nil, err
			}
		}
		if err := panel.SetField(domain.FieldFutureReturn, domain.ForwardReturns(closeRows)); err != nil {
			return nil, err
		}
		log.Infow("derived forward returns from close prices", "dir", dir)
	}

	log.Infow("loaded panel",
		"dir", dir,
		"dates", len(index.Dates),
		"assets", len(index.Assets),
		"fields", panel.FieldNames(),
	)

	return panel, nil
}

// LoadFactor reads a factor file laid out like a field file and lines
// it up with the panel's date and asset index.
func (h panelRepositoryHandler) LoadFactor(path string, env domain.PanelDataSource) (domain.Matrix, error) {
	table, err := readWideFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load factor: %w", err)
	}
	index := &wideTable{
		Dates:  env.Dates(),
		Assets: env.Assets(),
	}
	values, err := alignTo(index, table)
	if err != nil {
		return nil, domain.InvalidInputError{Err: fmt.Errorf("factor does not match panel: %w", err)}
	}
	return values, nil
}

func readWideFile(path string) (*wideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(
		f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{
			dateColumn: series.String,
		}),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), df.Err)
	}

	names := df.Names()
	if len(names) == 0 || names[0] != dateColumn {
		return nil, fmt.Errorf("%s: first column must be %s", filepath.Base(path), dateColumn)
	}

	dates, err := util.ParseDates(df.Col(dateColumn).Records())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	assets := names[1:]
	values := domain.NewMatrix(len(dates), len(assets), 0)
	for j, asset := range assets {
		col := df.Col(asset).Float()
		for i := range dates {
			values[i][j] = col[i]
		}
	}

	return &wideTable{
		Dates:  dates,
		Assets: assets,
		Values: values,
	}, nil
}

// alignTo reorders table's columns into index's asset order. Dates must
// match exactly; asset sets must match but may be ordered differently.
func alignTo(index, table *wideTable) (domain.Matrix, error) {
	if !util.EqualDates(index.Dates, table.Dates) {
		return nil, fmt.Errorf("date index differs: %d dates, expected %d", len(table.Dates), len(index.Dates))
	}
	if len(index.Assets) != len(table.Assets) {
		return nil, fmt.Errorf("has %d assets, expected %d", len(table.Assets), len(index.Assets))
	}

	position := make(map[string]int, len(table.Assets))
	for j, asset := range table.Assets {
		position[asset] = j
	}

	out := domain.NewMatrix(len(index.Dates), len(index.Assets), 0)
	for j, asset := range index.Assets {
		src, ok := position[asset]
		if !ok {
			return nil, fmt.Errorf("missing asset %s", asset)
		}
		for i := range out {
			out[i][j] = table.Values[i][src]
		}
	}
	return out, nil
}
