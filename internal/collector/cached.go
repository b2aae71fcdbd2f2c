package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"BenchBoard/internal/cache"
	"BenchBoard/internal/model"
)

// CachedFetcher memoizes a Fetcher on (symbol set, start, end).
// Cache failures are logged and bypassed. Errors are never cached.
type CachedFetcher struct {
	Fetcher Fetcher
	Store   cache.Store
	TTL     time.Duration
}

// NewCachedFetcher wraps fetcher with store.
func NewCachedFetcher(fetcher Fetcher, store cache.Store, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Fetcher: fetcher, Store: store, TTL: ttl}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() }

// CacheKey builds the memo key. Symbol order does not matter.
func CacheKey(source string, symbols []string, start, end time.Time) string {
	s := append([]string(nil), symbols...)
	sort.Strings(s)
	return fmt.Sprintf("prices:%s:%s:%s:%s", source, strings.Join(s, ","),
		model.Day(start).Format(model.DateLayout), model.Day(end).Format(model.DateLayout))
}

func (c *CachedFetcher) FetchPrices(ctx context.Context, symbols []string, start, end time.Time) (*model.RawFrame, error) {
	key := CacheKey(c.Fetcher.Name(), symbols, start, end)

	data, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		log.Printf("[WARN] %s cache get %s: %v", c.Store.Name(), key, err)
	}
	if ok {
		var frame model.RawFrame
		if err := json.Unmarshal(data, &frame); err == nil {
			// Requested order is part of the response contract, not of the key.
			frame.Requested = append([]string(nil), symbols...)
			return &frame, nil
		}
		log.Printf("[WARN] %s cache entry %s undecodable, refetching", c.Store.Name(), key)
	}

	frame, err := c.Fetcher.FetchPrices(ctx, symbols, start, end)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(frame); err != nil {
		log.Printf("[WARN] encode frame for cache: %v", err)
	} else if err := c.Store.Set(ctx, key, data, c.TTL); err != nil {
		log.Printf("[WARN] %s cache set %s: %v", c.Store.Name(), key, err)
	}
	return frame, nil
}
