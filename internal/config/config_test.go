package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BenchBoard/internal/model"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(cfg.Instruments) != len(DefaultCatalog) {
		t.Errorf("expected default catalog, got %d instruments", len(cfg.Instruments))
	}
	if in, ok := cfg.Lookup("Bitcoin"); !ok || in.Symbol != "BTC-USD" {
		t.Errorf("expected Bitcoin -> BTC-USD, got %+v", in)
	}
	if cfg.CacheTTL() != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cfg.CacheTTL())
	}
	if cfg.Schedule.DigestCron == "" {
		t.Error("expected a default digest schedule")
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9000"
instruments:
  - label: Bitcoin
    symbol: BTC-USD
  - label: Gold
    symbol: GC=F
range:
  start: "2024-01-01"
  end: "2024-06-30"
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LISTEN_ADDR", ":9100")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Server.Addr != ":9100" {
		t.Errorf("expected env override, got %s", cfg.Server.Addr)
	}
	if !cfg.TelegramEnabled() || cfg.Telegram.ChatID != "42" {
		t.Errorf("expected telegram from env, got %+v", cfg.Telegram)
	}
	if len(cfg.Instruments) != 2 {
		t.Errorf("expected 2 instruments, got %d", len(cfg.Instruments))
	}
	start, end, err := cfg.DateRange(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if start.Format("2006-01-02") != "2024-01-01" || end.Format("2006-01-02") != "2024-06-30" {
		t.Errorf("unexpected range %v..%v", start, end)
	}
}

func TestDateRange_EndDefaultsToToday(t *testing.T) {
	cfg := &Config{}
	cfg.Range.Start = "2023-01-01"
	now := time.Date(2025, 2, 3, 17, 45, 0, 0, time.UTC)
	_, end, err := cfg.DateRange(now)
	if err != nil {
		t.Fatal(err)
	}
	if end.Format("2006-01-02") != "2025-02-03" {
		t.Errorf("expected today, got %v", end)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg, _ := Load(filepath.Join(t.TempDir(), "none.yaml"))
		return cfg
	}

	cfg := base()
	cfg.Instruments = append(cfg.Instruments, cfg.Instruments[0])
	if err := cfg.Validate(); err == nil {
		t.Error("expected duplicate label error")
	}

	cfg = base()
	cfg.Instruments = append(cfg.Instruments, model.Instrument{Label: "Bitcoin Again", Symbol: "BTC-USD"})
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate symbol") {
		t.Errorf("expected duplicate symbol error, got %v", err)
	}

	cfg = base()
	cfg.Range.End = "2020-01-01"
	if err := cfg.Validate(); err == nil {
		t.Error("expected start after end error")
	}

	cfg = base()
	cfg.Cache.TTL = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected ttl error")
	}
}
