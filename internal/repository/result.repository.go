package repository

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"factorlens/internal/domain"

	"github.com/gocarina/gocsv"
)

// ResultRepository exports tester output as long-format CSV.
type ResultRepository interface {
	WriteGroupReturns(w io.Writer, result domain.GroupReturns) error
	WriteIcSeries(w io.Writer, result domain.IcSeries) error
	SaveGroupReturns(path string, result domain.GroupReturns) error
	SaveIcSeries(path string, result domain.IcSeries) error
}

type resultRepositoryHandler struct{}

func NewResultRepository() ResultRepository {
	return resultRepositoryHandler{}
}

type groupReturnRow struct {
	TradeDate string `csv:"trade_date"`
	Group     string `csv:"group"`
	Return    string `csv:"return"`
}

type icRow struct {
	TradeDate string `csv:"trade_date"`
	Ic        string `csv:"ic"`
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (h resultRepositoryHandler) WriteGroupReturns(w io.Writer, result domain.GroupReturns) error {
	rows := make([]groupReturnRow, 0, len(result.Dates)*len(result.Labels))
	for i, date := range result.Dates {
		for j, label := range result.Labels {
			rows = append(rows, groupReturnRow{
				TradeDate: date.Format(time.DateOnly),
				Group:     label,
				Return:    formatFloat(result.Returns[i][j]),
			})
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write group returns: %w", err)
	}
	return nil
}

func (h resultRepositoryHandler) WriteIcSeries(w io.Writer, result domain.IcSeries) error {
	rows := make([]icRow, len(result.Dates))
	for i, date := range result.Dates {
		rows[i] = icRow{
			TradeDate: date.Format(time.DateOnly),
			Ic:        formatFloat(result.Values[i]),
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write ic series: %w", err)
	}
	return nil
}

func (h resultRepositoryHandler) SaveGroupReturns(path string, result domain.GroupReturns) error {
	return writeFile(path, func(w io.Writer) error {
		return h.WriteGroupReturns(w, result)
	})
}

func (h resultRepositoryHandler) SaveIcSeries(path string, result domain.IcSeries) error {
	return writeFile(path, func(w io.Writer) error {
		return h.WriteIcSeries(w, result)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
