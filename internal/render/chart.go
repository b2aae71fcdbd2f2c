package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"BenchBoard/internal/calculator"
	"BenchBoard/internal/model"
)

var palette = []string{
	"#f7931a", "#1f77b4", "#d4af37", "#2ca02c",
	"#9467bd", "#8c564b", "#e377c2", "#17becf",
}

// ChartOptions sizes the chart.
type ChartOptions struct {
	Width  int
	Height int
	Title  string
}

const (
	padLeft   = 60
	padRight  = 20
	padTop    = 40
	padBottom = 50
	gridLines = 5
)

// ChartSVG draws one line per column of a normalized table: x is the date,
// y the percent change. Missing cells are skipped, joining the neighbors.
// A table without columns yields an empty frame with axes only.
func ChartSVG(t *model.PriceTable, opts ChartOptions) string {
	if opts.Width <= 0 {
		opts.Width = 1000
	}
	if opts.Height <= 0 {
		opts.Height = 500
	}
	plotW := float64(opts.Width - padLeft - padRight)
	plotH := float64(opts.Height - padTop - padBottom)

	high, low := calculator.TableRange(t)
	if high == low {
		high, low = high+1, low-1
	}
	span := high - low
	high += span * 0.05
	low -= span * 0.05

	y := func(v float64) float64 { return padTop + (high-v)/(high-low)*plotH }
	x := func(i int) float64 {
		if len(t.Dates) < 2 {
			return padLeft + plotW/2
		}
		first, last := t.Dates[0], t.Dates[len(t.Dates)-1]
		frac := t.Dates[i].Sub(first).Seconds() / last.Sub(first).Seconds()
		return padLeft + frac*plotW
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">`,
		opts.Width, opts.Height, opts.Width, opts.Height))
	b.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="#fff"/>`, opts.Width, opts.Height))
	if opts.Title != "" {
		b.WriteString(fmt.Sprintf(`<text x="%d" y="20" text-anchor="middle" font-size="16">%s</text>`,
			opts.Width/2, html.EscapeString(opts.Title)))
	}

	// Grid
	for i := 0; i <= gridLines; i++ {
		v := low + (high-low)*float64(i)/gridLines
		yy := y(v)
		b.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#e5e5e5"/>`,
			padLeft, yy, padLeft+plotW, yy))
		b.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" text-anchor="end">%.0f%%</text>`,
			padLeft-6, yy+4, v))
	}
	if len(t.Dates) > 0 {
		ticks := 6
		if len(t.Dates) < ticks {
			ticks = len(t.Dates)
		}
		for k := 0; k < ticks; k++ {
			i := 0
			if ticks > 1 {
				i = k * (len(t.Dates) - 1) / (ticks - 1)
			}
			xx := x(i)
			b.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%.1f" stroke="#e5e5e5"/>`,
				xx, padTop, xx, padTop+plotH))
			b.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`,
				xx, padTop+plotH+18, t.Dates[i].Format(model.DateLayout)))
		}
	}
	b.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" text-anchor="middle">Date</text>`,
		padLeft+plotW/2, opts.Height-8))
	b.WriteString(fmt.Sprintf(`<text x="14" y="%.1f" text-anchor="middle" transform="rotate(-90 14 %.1f)">Performance (%%)</text>`,
		padTop+plotH/2, padTop+plotH/2))

	// Zero reference
	b.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%.1f" y2="%.1f" stroke="gray" stroke-width="0.5"/>`,
		padLeft, y(0), padLeft+plotW, y(0)))

	for ci, c := range t.Columns {
		color := palette[ci%len(palette)]
		var pts []string
		for i, v := range c.Values {
			if !v.Valid || math.IsNaN(v.V) {
				continue
			}
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", x(i), y(v.V)))
		}
		if len(pts) > 0 {
			b.WriteString(fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"><title>%s</title></polyline>`,
				color, strings.Join(pts, " "), html.EscapeString(c.Name)))
		}
		// Legend
		ly := padTop + 10 + ci*16
		b.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="3" fill="%s"/>`, padLeft+10, ly, color))
		b.WriteString(fmt.Sprintf(`<text x="%d" y="%d">%s</text>`, padLeft+28, ly+5, html.EscapeString(c.Name)))
	}

	b.WriteString(`</svg>`)
	return b.String()
}
