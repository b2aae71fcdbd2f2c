package calculator

import "BenchBoard/internal/model"

// Rebase converts a series to percent change from its first valid value.
// ok is false when the series has no valid value or the base is zero.
func Rebase(values []model.Value) (out []model.Value, ok bool) {
	base := 0.0
	found := false
	for _, v := range values {
		if v.Valid {
			base, found = v.V, true
			break
		}
	}
	if !found || base == 0 {
		return nil, false
	}
	out = make([]model.Value, len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = model.Some((v.V/base - 1) * 100)
		}
	}
	return out, true
}

// Normalize rebases every column independently. Columns that cannot be
// rebased are dropped and their names returned as excluded.
func Normalize(table *model.PriceTable) (*model.PriceTable, []string) {
	out := model.NewPriceTable(table.Dates)
	var excluded []string
	for _, c := range table.Columns {
		rebased, ok := Rebase(c.Values)
		if !ok {
			excluded = append(excluded, c.Name)
			continue
		}
		out.Columns = append(out.Columns, model.Column{Name: c.Name, Values: rebased})
	}
	return out, excluded
}
