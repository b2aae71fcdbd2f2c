package model

import (
	"fmt"
	"time"
)

// Column is one named series aligned on a table's date axis.
type Column struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// PriceTable is a rectangular table: rows are trading days, columns are
// instruments. Dates are ascending and unique.
type PriceTable struct {
	Dates   []time.Time `json:"dates"`
	Columns []Column    `json:"columns"`
}

// NewPriceTable returns an empty table over the given date axis.
func NewPriceTable(dates []time.Time) *PriceTable {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &PriceTable{Dates: d}
}

// Len returns the number of rows.
func (t *PriceTable) Len() int { return len(t.Dates) }

// AddColumn appends a copy of values under name.
func (t *PriceTable) AddColumn(name string, values []Value) error {
	if len(values) != len(t.Dates) {
		return fmt.Errorf("column %q: %d values for %d dates", name, len(values), len(t.Dates))
	}
	if _, ok := t.Column(name); ok {
		return fmt.Errorf("column %q: duplicate name", name)
	}
	v := make([]Value, len(values))
	copy(v, values)
	t.Columns = append(t.Columns, Column{Name: name, Values: v})
	return nil
}

// Column looks up a column by name.
func (t *PriceTable) Column(name string) ([]Value, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Names returns the column names in table order.
func (t *PriceTable) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
