package model

import "time"

// WarningKind classifies a non-fatal pipeline condition.
type WarningKind string

const (
	WarnPartialDataLoss WarningKind = "PARTIAL_DATA_LOSS"
	WarnColumnExcluded  WarningKind = "COLUMN_EXCLUDED"
	WarnEmptySelection  WarningKind = "EMPTY_SELECTION"
)

// Warning is reported alongside a successful run.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Labels  []string    `json:"labels,omitempty"`
	Message string      `json:"message"`
}

// ColumnSummary describes one normalized series.
type ColumnSummary struct {
	Label     string    `json:"label"`
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`
	Change    float64   `json:"change"` // % change at the last valid row
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
}

// RenderModel is everything a view needs for one pipeline run.
type RenderModel struct {
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Instruments []Instrument    `json:"instruments"`
	Prices      *PriceTable     `json:"prices"`
	Normalized  *PriceTable     `json:"normalized"`
	Display     *PriceTable     `json:"display"`
	Available   []string        `json:"available"`
	Summaries   []ColumnSummary `json:"summaries"`
	Warnings    []Warning       `json:"warnings,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}
