package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"BenchBoard/internal/cache"
	"BenchBoard/internal/model"
)

func day(s string) time.Time {
	t, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

var catalog = []model.Instrument{
	{Label: "Bitcoin", Symbol: "BTC-USD"},
	{Label: "S&P 500", Symbol: "^GSPC"},
	{Label: "Gold", Symbol: "GC=F"},
}

func baseRequest() Request {
	return Request{
		Instruments: catalog,
		Start:       day("2023-01-01"),
		End:         day("2023-01-31"),
	}
}

func TestRun_AllSymbolsSucceed(t *testing.T) {
	col := NewCollector(&MockFetcher{})
	req := baseRequest()
	req.Show = []string{"Bitcoin", "S&P 500", "Gold"}

	rm, err := col.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rm.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", rm.Warnings)
	}
	if got := rm.Display.Names(); len(got) != 3 {
		t.Fatalf("expected 3 display columns, got %v", got)
	}
	if rm.Display.Len() != rm.Normalized.Len() || rm.Normalized.Len() != 31 {
		t.Errorf("row counts: display %d, normalized %d", rm.Display.Len(), rm.Normalized.Len())
	}
	for _, c := range rm.Normalized.Columns {
		if c.Values[0].V != 0 {
			t.Errorf("%s: first normalized value %v, expected 0", c.Name, c.Values[0].V)
		}
	}
	if len(rm.Summaries) != 3 {
		t.Errorf("expected 3 summaries, got %d", len(rm.Summaries))
	}
}

func TestRun_PartialDataLossKeepsLabelsAligned(t *testing.T) {
	col := NewCollector(&MockFetcher{Fail: map[string]bool{"^GSPC": true}})
	rm, err := col.Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	names := rm.Prices.Names()
	if len(names) != 2 || names[0] != "Bitcoin" || names[1] != "Gold" {
		t.Fatalf("expected [Bitcoin Gold], got %v", names)
	}
	// Mock prices are seeded by request position: Gold is the third symbol.
	gold, _ := rm.Prices.Column("Gold")
	if math.Abs(gold[0].V-297) > 1e-9 {
		t.Errorf("Gold column carries wrong series, first price %v", gold[0].V)
	}
	if len(rm.Warnings) != 1 || rm.Warnings[0].Kind != model.WarnPartialDataLoss {
		t.Fatalf("expected one partial data loss warning, got %+v", rm.Warnings)
	}
	if rm.Warnings[0].Labels[0] != "S&P 500" {
		t.Errorf("expected S&P 500 reported, got %v", rm.Warnings[0].Labels)
	}
}

func TestRun_CloseOnlySymbolIsKept(t *testing.T) {
	dates := []time.Time{day("2023-01-02"), day("2023-01-03")}
	frame := model.BuildFrame([]string{"BTC-USD", "^GSPC"}, false, []model.Series{
		{Field: model.FieldClose, Symbol: "BTC-USD", Dates: dates, Values: []model.Value{model.Some(100), model.Some(110)}},
		{Field: model.FieldAdjClose, Symbol: "BTC-USD", Dates: dates, Values: []model.Value{model.Some(100), model.Some(110)}},
		{Field: model.FieldClose, Symbol: "^GSPC", Dates: dates, Values: []model.Value{model.Some(4000), model.Some(3800)}},
	})
	req := baseRequest()
	req.Instruments = catalog[:2]

	rm, err := NewCollector(&MockFetcher{Frame: frame}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rm.Available; len(got) != 2 || got[0] != "Bitcoin" || got[1] != "S&P 500" {
		t.Errorf("expected both instruments available, got %v", got)
	}
	if len(rm.Warnings) != 0 {
		t.Errorf("unexpected warnings %+v", rm.Warnings)
	}
	sp, _ := rm.Normalized.Column("S&P 500")
	if math.Abs(sp[1].V-(-5)) > 1e-9 {
		t.Errorf("expected S&P 500 at -5%%, got %+v", sp)
	}
}

func TestRun_NoSymbolsReturnData(t *testing.T) {
	fail := map[string]bool{"BTC-USD": true, "^GSPC": true, "GC=F": true}
	_, err := NewCollector(&MockFetcher{Fail: fail}).Run(context.Background(), baseRequest())
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}

	_, err = NewCollector(&MockFetcher{Err: errors.New("connection refused")}).Run(context.Background(), baseRequest())
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("provider error: expected ErrDataUnavailable, got %v", err)
	}
}

func TestRun_NoPriceField(t *testing.T) {
	frame := &model.RawFrame{
		Requested: []string{"BTC-USD", "^GSPC", "GC=F"},
		Dates:     []time.Time{day("2023-01-02")},
		Columns: []model.FrameColumn{
			{Field: "Open", Symbol: "BTC-USD", Values: []model.Value{model.Some(1)}},
		},
	}
	_, err := NewCollector(&MockFetcher{Frame: frame}).Run(context.Background(), baseRequest())
	if !errors.Is(err, model.ErrNoPriceFieldFound) {
		t.Errorf("expected ErrNoPriceFieldFound, got %v", err)
	}
}

func TestRun_EmptySelection(t *testing.T) {
	req := baseRequest()
	req.Show = []string{"Vacant Land"}
	rm, err := NewCollector(&MockFetcher{}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rm.Display.Columns) != 0 || rm.Display.Len() != rm.Normalized.Len() {
		t.Errorf("expected empty chart frame over the full date axis")
	}
	if len(rm.Warnings) != 1 || rm.Warnings[0].Kind != model.WarnEmptySelection {
		t.Errorf("expected empty selection warning, got %+v", rm.Warnings)
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(r *Request)
	}{
		{"no instruments", func(r *Request) { r.Instruments = nil }},
		{"start after end", func(r *Request) { r.Start = day("2024-01-01") }},
		{"zero end", func(r *Request) { r.End = time.Time{} }},
		{"duplicate label", func(r *Request) {
			r.Instruments = []model.Instrument{{Label: "A", Symbol: "X"}, {Label: "A", Symbol: "Y"}}
		}},
		{"duplicate symbol", func(r *Request) {
			r.Instruments = []model.Instrument{{Label: "A", Symbol: "X"}, {Label: "B", Symbol: "X"}}
		}},
	}
	for _, tt := range tests {
		r := baseRequest()
		tt.mod(&r)
		if err := r.Validate(); !errors.Is(err, model.ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", tt.name, err)
		}
	}
	r := baseRequest()
	if err := r.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
}

func TestCachedFetcher_Memoizes(t *testing.T) {
	mock := &MockFetcher{}
	f := NewCachedFetcher(mock, cache.NewMemoryStore(), time.Hour)
	ctx := context.Background()
	start, end := day("2023-01-01"), day("2023-01-10")

	first, err := f.FetchPrices(ctx, []string{"A", "B"}, start, end)
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	second, err := f.FetchPrices(ctx, []string{"B", "A"}, start, end)
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if mock.Calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", mock.Calls)
	}
	if len(second.Columns) != len(first.Columns) || len(second.Dates) != len(first.Dates) {
		t.Errorf("cached frame differs from original")
	}
	if second.Requested[0] != "B" {
		t.Errorf("expected requested order of the caller, got %v", second.Requested)
	}

	if _, err := f.FetchPrices(ctx, []string{"A", "B"}, start, day("2023-01-11")); err != nil {
		t.Fatal(err)
	}
	if mock.Calls != 2 {
		t.Errorf("expected a new call for a new range, got %d calls", mock.Calls)
	}
}

func TestCachedFetcher_DoesNotCacheErrors(t *testing.T) {
	mock := &MockFetcher{Err: errors.New("boom")}
	f := NewCachedFetcher(mock, cache.NewMemoryStore(), time.Hour)
	for i := 0; i < 2; i++ {
		if _, err := f.FetchPrices(context.Background(), []string{"A"}, day("2023-01-01"), day("2023-01-02")); err == nil {
			t.Fatal("expected error")
		}
	}
	if mock.Calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", mock.Calls)
	}
}

const chartTemplate = `{"chart":{"result":[{"meta":{"symbol":"%s","gmtoffset":%d},
"timestamp":[%s],
"indicators":{"quote":[{"close":[%s]}],"adjclose":[{"adjclose":[%s]}]}}],"error":null}}`

func newYahooServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("interval") != "1d" {
			http.Error(w, "bad interval", http.StatusBadRequest)
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/") {
		case "BTC-USD":
			// 2023-01-01 and 2023-01-02 00:00 UTC
			fmt.Fprintf(w, chartTemplate, "BTC-USD", 0, "1672531200,1672617600", "16500,null", "16500,null")
		case "IEI":
			// 2023-01-03 14:30 UTC and 2023-01-04 02:00 UTC, New York offset
			fmt.Fprintf(w, chartTemplate, "IEI", -18000, "1672756200,1672797600", "115,116", "114,115")
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
		}
	}))
}

func TestYahooFetcher_BuildsHierarchicalFrame(t *testing.T) {
	srv := newYahooServer(t)
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "")
	frame, err := f.FetchPrices(context.Background(), []string{"BTC-USD", "IEI", "CAMP"}, day("2023-01-01"), day("2023-01-05"))
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if frame.Flat {
		t.Error("expected hierarchical frame for multiple symbols")
	}
	// BTC trades 01-01 and 01-02; IEI bars both land on 01-03 in exchange time.
	if len(frame.Dates) != 3 {
		t.Fatalf("expected 3 dates, got %v", frame.Dates)
	}
	if syms := frame.Symbols(); len(syms) != 2 {
		t.Errorf("expected BTC-USD and IEI only, got %v", syms)
	}
	for _, c := range frame.Columns {
		if c.Symbol == "BTC-USD" && c.Values[1].Valid {
			t.Error("null close must be missing, not zero")
		}
		if c.Symbol == "IEI" && c.Field == model.FieldAdjClose && c.Values[2].V != 115 {
			t.Errorf("expected last IEI bar to win for 01-03, got %+v", c.Values)
		}
	}
}

func TestYahooFetcher_SingleSymbolIsFlat(t *testing.T) {
	srv := newYahooServer(t)
	defer srv.Close()

	frame, err := NewYahooFetcher(srv.URL, "").FetchPrices(context.Background(), []string{"BTC-USD"}, day("2023-01-01"), day("2023-01-02"))
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if !frame.Flat {
		t.Error("expected flat frame")
	}
	for _, c := range frame.Columns {
		if c.Symbol != "" {
			t.Errorf("flat frame column carries symbol %q", c.Symbol)
		}
	}
}

func TestYahooFetcher_AllFail(t *testing.T) {
	srv := newYahooServer(t)
	defer srv.Close()

	_, err := NewYahooFetcher(srv.URL, "").FetchPrices(context.Background(), []string{"CAMP", "NOPE"}, day("2023-01-01"), day("2023-01-02"))
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestYahooFetcher_AllFailKeepsCause(t *testing.T) {
	srv := newYahooServer(t)
	srv.Close()

	_, err := NewYahooFetcher(srv.URL, "").FetchPrices(context.Background(), []string{"BTC-USD"}, day("2023-01-01"), day("2023-01-02"))
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Errorf("expected the transport error to be unwrappable, got %v", err)
	}
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestYahooFetcher_EndToEnd(t *testing.T) {
	srv := newYahooServer(t)
	defer srv.Close()

	col := NewCollector(NewYahooFetcher(srv.URL, ""))
	rm, err := col.Run(context.Background(), Request{
		Instruments: []model.Instrument{
			{Label: "Bitcoin", Symbol: "BTC-USD"},
			{Label: "Vacant Land", Symbol: "CAMP"},
			{Label: "5 Year Treasuries", Symbol: "IEI"},
		},
		Start: day("2023-01-01"),
		End:   day("2023-01-05"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rm.Available; len(got) != 2 || got[0] != "Bitcoin" || got[1] != "5 Year Treasuries" {
		t.Errorf("unexpected available labels %v", got)
	}
	if len(rm.Warnings) == 0 || rm.Warnings[0].Labels[0] != "Vacant Land" {
		t.Errorf("expected Vacant Land partial loss, got %+v", rm.Warnings)
	}
}
