package render

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"BenchBoard/internal/model"
)

// FormatValue prints a cell, leaving missing cells blank.
func FormatValue(v model.Value, format string) string {
	if !v.Valid {
		return ""
	}
	return fmt.Sprintf(format, v.V)
}

func tableSet(t *model.PriceTable, format string) md.TableSet {
	set := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft},
		Header:    []string{"Date"},
		Rows:      [][]string{},
	}
	for _, c := range t.Columns {
		set.Header = append(set.Header, c.Name)
		set.Alignment = append(set.Alignment, md.AlignRight)
	}
	for i, d := range t.Dates {
		row := []string{d.Format(model.DateLayout)}
		for _, c := range t.Columns {
			row = append(row, FormatValue(c.Values[i], format))
		}
		set.Rows = append(set.Rows, row)
	}
	return set
}

// PricesMarkdown renders the raw fetched prices of a run as a table.
func PricesMarkdown(rm *model.RenderModel) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Prices %s to %s",
		rm.Start.Format(model.DateLayout), rm.End.Format(model.DateLayout)))
	doc.Table(tableSet(rm.Prices, "%.2f"))
	return doc.String()
}

// SnapshotMarkdown renders a performance report for one run.
func SnapshotMarkdown(rm *model.RenderModel, withPrices bool) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("BTC vs TradFi Performance")
	doc.PlainText(fmt.Sprintf("Performance since %s, through %s.",
		rm.Start.Format(model.DateLayout), rm.End.Format(model.DateLayout)))

	if len(rm.Warnings) > 0 {
		doc.H2("Warnings")
		items := make([]string, len(rm.Warnings))
		for i, w := range rm.Warnings {
			items[i] = fmt.Sprintf("%s: %s", w.Kind, w.Message)
		}
		doc.BulletList(items...)
	}

	shown := make(map[string]bool)
	for _, name := range rm.Display.Names() {
		shown[name] = true
	}

	doc.H2("Performance")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Instrument", "From", "To", "Change", "Low", "High"},
		Rows:   [][]string{},
	}
	for _, s := range rm.Summaries {
		if !shown[s.Label] {
			continue
		}
		table.Rows = append(table.Rows, []string{
			s.Label,
			s.FirstDate.Format(model.DateLayout),
			s.LastDate.Format(model.DateLayout),
			md.Bold(fmt.Sprintf("%+.2f%%", s.Change)),
			fmt.Sprintf("%+.2f%%", s.Min),
			fmt.Sprintf("%+.2f%%", s.Max),
		})
	}
	doc.Table(table)

	if withPrices {
		doc.H2("Prices")
		doc.Table(tableSet(rm.Prices, "%.2f"))
	}
	return doc.String()
}
