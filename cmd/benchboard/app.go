package main

import (
	"fmt"
	"log"
	"os"

	"BenchBoard/internal/cache"
	"BenchBoard/internal/collector"
	"BenchBoard/internal/config"
	"BenchBoard/internal/recorder"
	"BenchBoard/internal/scheduler"
)

// app is the wired pipeline shared by every subcommand.
type app struct {
	cfg    *config.Config
	col    *collector.Collector
	rec    recorder.Recorder
	purger scheduler.Purger // set when the in-process cache is used
	store  cache.Store
}

func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(configPath(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	a := &app{cfg: cfg}

	// Init fetcher
	fetcher := collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy)
	log.Printf("[INFO] data source: %s (%s)", fetcher.Name(), fetcher.BaseURL)

	// Init cache
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, "benchboard:")
		if err != nil {
			log.Printf("[WARN] init redis cache failed, using memory: %v", err)
		} else {
			a.store = rs
		}
	}
	if a.store == nil {
		ms := cache.NewMemoryStore()
		a.store, a.purger = ms, ms
	}
	log.Printf("[INFO] cache: %s, ttl %s", a.store.Name(), cfg.CacheTTL())

	a.col = collector.NewCollector(collector.NewCachedFetcher(fetcher, a.store, cfg.CacheTTL()))

	// Init recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			a.rec = recorder.NewNoopRecorder()
		} else {
			a.rec = sr
		}
	} else {
		a.rec = recorder.NewNoopRecorder()
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.rec.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close cache: %v", err)
	}
}
