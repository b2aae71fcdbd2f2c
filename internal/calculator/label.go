package calculator

import "BenchBoard/internal/model"

// LabelColumns renames symbol columns to display labels by symbol identity.
// It returns the relabeled table, the labels of instruments that have no
// column, and the names of columns dropped because neither their label nor
// their symbol was free. Columns with unknown symbols keep their symbol as label.
func LabelColumns(table *model.PriceTable, instruments []model.Instrument) (out *model.PriceTable, missing, dropped []string) {
	bySymbol := make(map[string]string, len(instruments))
	for _, in := range instruments {
		bySymbol[in.Symbol] = in.Label
	}

	out = model.NewPriceTable(table.Dates)
	present := make(map[string]bool)
	for _, c := range table.Columns {
		label, ok := bySymbol[c.Name]
		if !ok {
			label = c.Name
		}
		present[c.Name] = true
		// Columns are unique by symbol and labels are unique by instrument,
		// so a clash only happens when a stray symbol equals a label.
		if err := out.AddColumn(label, c.Values); err == nil {
			continue
		}
		if err := out.AddColumn(c.Name, c.Values); err != nil {
			dropped = append(dropped, c.Name)
		}
	}

	for _, in := range instruments {
		if !present[in.Symbol] {
			missing = append(missing, in.Label)
		}
	}
	return out, missing, dropped
}
