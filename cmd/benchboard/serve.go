package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"BenchBoard/internal/collector"
	"BenchBoard/internal/notifier"
	"BenchBoard/internal/scheduler"
	"BenchBoard/internal/web"
)

type serveCmd struct {
	config string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard web server and the refresh schedule" }
func (*serveCmd) Usage() string {
	return `benchboard serve [-config <path>]

  Serves the comparison dashboard, the JSON/Markdown API and warms the
  price cache on the configured cron schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "config file (defaults to $CONFIG_PATH or configs/config.yaml)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log.Println("[INFO] BenchBoard starting...")
	a, err := newApp(c.config)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Init scheduler
	request := func() collector.Request {
		req := collector.Request{Instruments: a.cfg.Instruments}
		start, end, err := a.cfg.DateRange(time.Now())
		if err != nil {
			log.Printf("[ERROR] configured range: %v", err)
		}
		req.Start, req.End = start, end
		return req
	}
	sched := scheduler.NewScheduler(ctx, a.col, a.rec, a.purger, request)

	// Init Telegram notifier
	if a.cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
		sched.Notifier = tn
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if err := sched.RegisterAll(a.cfg.Schedule.RefreshCron, a.cfg.Schedule.PurgeCron, a.cfg.Schedule.DigestCron); err != nil {
		log.Printf("[FATAL] register cron tasks: %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	// Optional: warm the cache immediately
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing refresh now")
		go sched.RunRefreshNow()
	}

	srv := web.NewServer(a.cfg, a.col, a.rec)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	log.Println("[INFO] BenchBoard is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case err := <-errCh:
		if err != nil {
			log.Printf("[ERROR] http server: %v", err)
			return subcommands.ExitFailure
		}
	}

	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] BenchBoard stopped")
	return subcommands.ExitSuccess
}
