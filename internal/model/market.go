package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Instrument maps a display label to a provider symbol.
type Instrument struct {
	Label  string `yaml:"label" json:"label"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Value is a single price cell. Missing cells have Valid == false.
type Value struct {
	V     float64
	Valid bool
}

// Some returns a present value.
func Some(v float64) Value { return Value{V: v, Valid: true} }

// Missing is the empty cell.
var Missing = Value{}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Missing
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*v = Some(f)
	return nil
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DateLayout is the date format used on every external surface.
const DateLayout = "2006-01-02"
