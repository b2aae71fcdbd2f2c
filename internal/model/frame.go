package model

import (
	"sort"
	"time"
)

// Price field names as delivered by the provider.
const (
	FieldAdjClose = "Adj Close"
	FieldClose    = "Close"
)

// FrameColumn is one (field, symbol) series of a raw provider response.
// Symbol is empty in a flat frame.
type FrameColumn struct {
	Field  string  `json:"field"`
	Symbol string  `json:"symbol,omitempty"`
	Values []Value `json:"values"`
}

// RawFrame is the untrusted provider response. A flat frame has no symbol
// level; it is only meaningful when exactly one symbol was requested.
type RawFrame struct {
	Requested []string      `json:"requested"`
	Flat      bool          `json:"flat"`
	Dates     []time.Time   `json:"dates"`
	Columns   []FrameColumn `json:"columns"`
}

// Series is a provider series before alignment onto a shared date axis.
type Series struct {
	Field  string
	Symbol string
	Dates  []time.Time
	Values []Value
}

// BuildFrame aligns series onto the union of their dates. Dates are
// truncated to the UTC day; a repeated day keeps the last value.
func BuildFrame(requested []string, flat bool, series []Series) *RawFrame {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, s := range series {
		for _, d := range s.Dates {
			d = Day(d)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	f := &RawFrame{
		Requested: append([]string(nil), requested...),
		Flat:      flat,
		Dates:     dates,
	}
	for _, s := range series {
		values := make([]Value, len(dates))
		for i, d := range s.Dates {
			if i >= len(s.Values) {
				break
			}
			values[index[Day(d)]] = s.Values[i]
		}
		col := FrameColumn{Field: s.Field, Values: values}
		if !flat {
			col.Symbol = s.Symbol
		}
		f.Columns = append(f.Columns, col)
	}
	return f
}

// Symbols returns the distinct symbols in column order.
func (f *RawFrame) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range f.Columns {
		if !seen[c.Symbol] {
			seen[c.Symbol] = true
			out = append(out, c.Symbol)
		}
	}
	return out
}
