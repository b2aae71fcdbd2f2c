package calculator

import (
	"errors"
	"math"

	"BenchBoard/internal/model"
)

// SeriesRange scans a series and returns the high and low of its valid values.
func SeriesRange(values []model.Value) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, v := range values {
		if !v.Valid {
			continue
		}
		if v.V > high {
			high = v.V
		}
		if v.V < low {
			low = v.V
		}
	}
	if math.IsInf(high, -1) {
		return 0, 0, errors.New("no valid values in series")
	}
	return high, low, nil
}

// TableRange returns the high and low across all columns, always including 0
// so the baseline stays in view. An empty table yields 0, 0.
func TableRange(table *model.PriceTable) (high, low float64) {
	for _, c := range table.Columns {
		h, l, err := SeriesRange(c.Values)
		if err != nil {
			continue
		}
		high = math.Max(high, h)
		low = math.Min(low, l)
	}
	return high, low
}

// Summarize describes each column of a normalized table.
func Summarize(table *model.PriceTable) []model.ColumnSummary {
	out := make([]model.ColumnSummary, 0, len(table.Columns))
	for _, c := range table.Columns {
		h, l, err := SeriesRange(c.Values)
		if err != nil {
			continue
		}
		s := model.ColumnSummary{Label: c.Name, Min: l, Max: h}
		first := true
		for i, v := range c.Values {
			if !v.Valid {
				continue
			}
			if first {
				s.FirstDate = table.Dates[i]
				first = false
			}
			s.LastDate = table.Dates[i]
			s.Change = v.V
		}
		out = append(out, s)
	}
	return out
}
