package calculator

import (
	"fmt"
	"math"

	"BenchBoard/internal/model"
)

// ReconcileShape flattens a provider frame into a table with one column per
// symbol. The field is chosen per symbol: Adj Close when that symbol has at
// least one usable Adj Close price, else Close. Requested symbols missing
// from the response get no column.
func ReconcileShape(raw *model.RawFrame) (*model.PriceTable, error) {
	if raw == nil || len(raw.Dates) == 0 || len(raw.Columns) == 0 {
		return nil, fmt.Errorf("reconcile: empty response: %w", model.ErrDataUnavailable)
	}
	if raw.Flat && len(raw.Requested) != 1 {
		return nil, fmt.Errorf("reconcile: flat response for %d requested symbols: %w",
			len(raw.Requested), model.ErrUnexpectedShape)
	}

	table := model.NewPriceTable(raw.Dates)
	for _, symbol := range orderSymbols(raw) {
		values, ok := pickPrices(raw, symbol)
		if !ok {
			continue
		}
		name := symbol
		if raw.Flat {
			name = raw.Requested[0]
		}
		if err := table.AddColumn(name, values); err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("reconcile: %w", model.ErrNoPriceFieldFound)
	}
	return table, nil
}

// pickPrices returns the sanitized price series of one symbol. An Adj Close
// column without a single usable cell falls back to Close.
func pickPrices(raw *model.RawFrame, symbol string) ([]model.Value, bool) {
	var adj, closes []model.Value
	var hasAdj, hasClose bool
	for _, c := range raw.Columns {
		if c.Symbol != symbol {
			continue
		}
		switch {
		case c.Field == model.FieldAdjClose && !hasAdj:
			adj, hasAdj = sanitize(c.Values), true
		case c.Field == model.FieldClose && !hasClose:
			closes, hasClose = sanitize(c.Values), true
		}
	}
	switch {
	case hasAdj && (anyValid(adj) || !hasClose):
		return adj, true
	case hasClose:
		return closes, true
	default:
		return nil, false
	}
}

func anyValid(values []model.Value) bool {
	for _, v := range values {
		if v.Valid {
			return true
		}
	}
	return false
}

// orderSymbols lists the response symbols: requested order first, then extras.
func orderSymbols(raw *model.RawFrame) []string {
	present := raw.Symbols()
	if raw.Flat {
		return present
	}
	in := make(map[string]bool, len(present))
	for _, s := range present {
		in[s] = true
	}
	var out []string
	done := make(map[string]bool)
	for _, s := range raw.Requested {
		if in[s] && !done[s] {
			out = append(out, s)
			done[s] = true
		}
	}
	for _, s := range present {
		if !done[s] {
			out = append(out, s)
			done[s] = true
		}
	}
	return out
}

// sanitize drops cells that cannot be prices: negative, NaN or infinite.
func sanitize(values []model.Value) []model.Value {
	out := make([]model.Value, len(values))
	for i, v := range values {
		if v.Valid && v.V >= 0 && !math.IsInf(v.V, 0) {
			out[i] = v
		}
	}
	return out
}
