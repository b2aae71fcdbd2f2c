package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"BenchBoard/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart endpoint.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// maxErrorBody caps how much of an error response is quoted in errors.
const maxErrorBody = 512

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(baseURL, proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toValue converts a decoded JSON number. Nulls become missing cells.
func toValue(v interface{}) model.Value {
	switch n := v.(type) {
	case float64:
		return model.Some(n)
	case int:
		return model.Some(float64(n))
	default:
		return model.Missing
	}
}

// FetchPrices issues one chart request per symbol. Symbols that fail are left
// out of the frame; only a total failure is an error.
func (f *YahooFetcher) FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (*model.RawFrame, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("yahoo: no symbols requested")
	}
	var series []model.Series
	var lastErr error
	for _, symbol := range symbols {
		s, err := f.fetchChart(ctx, symbol, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[WARN] yahoo %s: %v", symbol, err)
			lastErr = err
			continue
		}
		series = append(series, s...)
	}
	if len(series) == 0 {
		if lastErr == nil {
			lastErr = errors.New("no rows")
		}
		return nil, fmt.Errorf("yahoo: every symbol failed, last error: %w: %w", lastErr, model.ErrDataUnavailable)
	}
	return model.BuildFrame(symbols, len(symbols) == 1, series), nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, start, end time.Time) ([]model.Series, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprintf("%d", model.Day(start).Unix()))
	q.Set("period2", fmt.Sprintf("%d", model.Day(end).AddDate(0, 0, 1).Unix()))
	q.Set("includeAdjustedClose", "true")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	dates := make([]time.Time, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Shift into exchange local time so the bar lands on its trading day.
		dates[i] = model.Day(time.Unix(ts+result.Meta.GMTOffset, 0))
	}

	var series []model.Series
	if len(result.Indicators.Quote) > 0 {
		series = append(series, model.Series{
			Field:  model.FieldClose,
			Symbol: symbol,
			Dates:  dates,
			Values: alignValues(result.Indicators.Quote[0].Close, len(dates)),
		})
	}
	if len(result.Indicators.AdjClose) > 0 {
		series = append(series, model.Series{
			Field:  model.FieldAdjClose,
			Symbol: symbol,
			Dates:  dates,
			Values: alignValues(result.Indicators.AdjClose[0].AdjClose, len(dates)),
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("yahoo: no price indicators")
	}
	return series, nil
}

func alignValues(raw []interface{}, n int) []model.Value {
	out := make([]model.Value, n)
	for i := 0; i < n && i < len(raw); i++ {
		out[i] = toValue(raw[i])
	}
	return out
}
