package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"BenchBoard/internal/calculator"
	"BenchBoard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols listed in Fail produce no data. Calls counts FetchPrices invocations.
type MockFetcher struct {
	Frame *model.RawFrame
	Fail  map[string]bool
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrices(_ context.Context, symbols []string, start, end time.Time) (*model.RawFrame, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Frame != nil {
		return m.Frame, nil
	}
	var series []model.Series
	for i, s := range symbols {
		if m.Fail[s] {
			continue
		}
		series = append(series, generateMockSeries(s, 100*float64(i+1), start, end)...)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("mock: no symbols returned data: %w", model.ErrDataUnavailable)
	}
	return model.BuildFrame(symbols, len(symbols) == 1, series), nil
}

func generateMockSeries(symbol string, basePrice float64, start, end time.Time) []model.Series {
	var dates []time.Time
	var closes, adj []model.Value
	i := 0
	for d := model.Day(start); !d.After(model.Day(end)); d = d.AddDate(0, 0, 1) {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/7))
		dates = append(dates, d)
		closes = append(closes, model.Some(p))
		adj = append(adj, model.Some(p*0.99))
		i++
	}
	return []model.Series{
		{Field: model.FieldClose, Symbol: symbol, Dates: dates, Values: closes},
		{Field: model.FieldAdjClose, Symbol: symbol, Dates: dates, Values: adj},
	}
}

// Request holds the parameters of one pipeline run.
type Request struct {
	Instruments []model.Instrument
	Show        []string // labels to display; nil means all
	Start       time.Time
	End         time.Time
}

// Validate checks the request for unusable parameters.
func (r *Request) Validate() error {
	if len(r.Instruments) == 0 {
		return fmt.Errorf("no instruments selected: %w", model.ErrInvalidRequest)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("start and end dates are required: %w", model.ErrInvalidRequest)
	}
	if model.Day(r.Start).After(model.Day(r.End)) {
		return fmt.Errorf("start %s after end %s: %w",
			r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout), model.ErrInvalidRequest)
	}
	labels := make(map[string]bool)
	symbols := make(map[string]bool)
	for _, in := range r.Instruments {
		if in.Label == "" || in.Symbol == "" {
			return fmt.Errorf("instrument %+v: empty label or symbol: %w", in, model.ErrInvalidRequest)
		}
		if labels[in.Label] {
			return fmt.Errorf("duplicate label %q: %w", in.Label, model.ErrInvalidRequest)
		}
		if symbols[in.Symbol] {
			return fmt.Errorf("duplicate symbol %q: %w", in.Symbol, model.ErrInvalidRequest)
		}
		labels[in.Label] = true
		symbols[in.Symbol] = true
	}
	return nil
}

// Symbols returns the provider symbols in request order.
func (r *Request) Symbols() []string {
	out := make([]string, len(r.Instruments))
	for i, in := range r.Instruments {
		out[i] = in.Symbol
	}
	return out
}

// Collector runs the fetch, reshape, normalize and filter pipeline.
type Collector struct {
	Fetcher Fetcher
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, now: time.Now}
}

// Run executes one pipeline pass. Fetch and shape failures abort the run;
// per-column losses are reported as warnings on the result.
func (c *Collector) Run(ctx context.Context, req Request) (*model.RenderModel, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start, end := model.Day(req.Start), model.Day(req.End)

	raw, err := c.Fetcher.FetchPrices(ctx, req.Symbols(), start, end)
	if err != nil {
		if errors.Is(err, model.ErrDataUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		return nil, fmt.Errorf("fetch: %v: %w", err, model.ErrDataUnavailable)
	}

	table, err := calculator.ReconcileShape(raw)
	if err != nil {
		return nil, err
	}
	prices, missing, dropped := calculator.LabelColumns(table, req.Instruments)
	if len(prices.Columns) == 0 {
		return nil, fmt.Errorf("none of %d requested symbols returned data: %w",
			len(req.Instruments), model.ErrDataUnavailable)
	}

	rm := &model.RenderModel{
		Start:       start,
		End:         end,
		Instruments: req.Instruments,
		Prices:      prices,
		GeneratedAt: c.now(),
	}
	if len(missing) > 0 {
		log.Printf("[WARN] no data for %s", strings.Join(missing, ", "))
		rm.Warnings = append(rm.Warnings, model.Warning{
			Kind:    model.WarnPartialDataLoss,
			Labels:  missing,
			Message: fmt.Sprintf("no data returned for %s", strings.Join(missing, ", ")),
		})
	}

	if len(dropped) > 0 {
		log.Printf("[WARN] dropped columns with clashing labels: %s", strings.Join(dropped, ", "))
		rm.Warnings = append(rm.Warnings, model.Warning{
			Kind:    model.WarnColumnExcluded,
			Labels:  dropped,
			Message: fmt.Sprintf("label already in use, dropped %s", strings.Join(dropped, ", ")),
		})
	}

	normalized, excluded := calculator.Normalize(prices)
	if len(excluded) > 0 {
		log.Printf("[WARN] excluded without a usable baseline: %s", strings.Join(excluded, ", "))
		rm.Warnings = append(rm.Warnings, model.Warning{
			Kind:    model.WarnColumnExcluded,
			Labels:  excluded,
			Message: fmt.Sprintf("no usable price in range for %s", strings.Join(excluded, ", ")),
		})
	}
	if len(normalized.Columns) == 0 {
		return nil, fmt.Errorf("no instrument has a usable price in range: %w", model.ErrDataUnavailable)
	}
	rm.Normalized = normalized
	rm.Available = normalized.Names()
	rm.Summaries = calculator.Summarize(normalized)

	rm.Display = calculator.SelectForDisplay(normalized, req.Show)
	if req.Show != nil && len(rm.Display.Columns) == 0 {
		rm.Warnings = append(rm.Warnings, model.Warning{
			Kind:    model.WarnEmptySelection,
			Labels:  req.Show,
			Message: "none of the selected instruments are available",
		})
	}
	return rm, nil
}
