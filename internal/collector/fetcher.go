package collector

import (
	"context"
	"time"

	"BenchBoard/internal/model"
)

// Fetcher defines the interface for fetching daily price histories.
// start and end are inclusive calendar days.
type Fetcher interface {
	FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (*model.RawFrame, error)
	Name() string
}
