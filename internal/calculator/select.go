package calculator

import "BenchBoard/internal/model"

// SelectForDisplay keeps the columns named in wanted, in table order.
// A nil wanted keeps every column; an empty one keeps none. Unknown labels
// are ignored.
func SelectForDisplay(table *model.PriceTable, wanted []string) *model.PriceTable {
	out := model.NewPriceTable(table.Dates)
	if wanted == nil {
		for _, c := range table.Columns {
			out.Columns = append(out.Columns, c)
		}
		return out
	}
	want := make(map[string]bool, len(wanted))
	for _, w := range wanted {
		want[w] = true
	}
	for _, c := range table.Columns {
		if want[c.Name] {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}
