package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"BenchBoard/internal/collector"
	"BenchBoard/internal/model"
	"BenchBoard/internal/notifier"
	"BenchBoard/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Purger drops expired cache entries.
type Purger interface {
	Purge() int
}

// Notifier delivers digests and alerts.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Purger    Purger   // nil when the cache expires on its own
	Notifier  Notifier // nil disables digests and alerts
	Request   func() collector.Request
	Ctx       context.Context

	mu         sync.Mutex
	lastFailed bool
}

// NewScheduler creates a new Scheduler. request builds the default dashboard
// request at each tick so that an open-ended range tracks the current day.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, purger Purger, request func() collector.Request) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Purger:    purger,
		Request:   request,
		Ctx:       ctx,
	}
}

// RegisterAll registers the refresh, purge and digest tasks. Purge and digest
// are skipped when there is no purger or notifier.
func (s *Scheduler) RegisterAll(refreshCron, purgeCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if s.Purger != nil {
		if _, err := s.Cron.AddFunc(purgeCron, s.purgeTask); err != nil {
			return fmt.Errorf("register purge task: %w", err)
		}
	}
	if s.Notifier != nil {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// runAndRecord runs the default request and records the outcome.
func (s *Scheduler) runAndRecord(ctx context.Context, trigger string) (*model.RenderModel, error) {
	req := s.Request()
	began := time.Now()
	rm, err := s.Collector.Run(ctx, req)

	evt := recorder.NewRunEvent(trigger, req.Symbols(), req.Start, req.End, rm, err, time.Since(began))
	if recErr := s.Recorder.RecordRun(evt); recErr != nil {
		log.Printf("[ERROR] record run: %v", recErr)
	}
	return rm, err
}

// refreshTask runs the default dashboard so the fetch memo is warm when a
// viewer arrives. The first failure after a success raises an alert.
func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running refresh task")
	rm, err := s.runAndRecord(s.Ctx, "SCHEDULE")
	if err != nil {
		log.Printf("[ERROR] refresh: %v", err)
		s.mu.Lock()
		alert := !s.lastFailed
		s.lastFailed = true
		s.mu.Unlock()
		if alert {
			s.notify(notifier.FormatFailure(err))
		}
		return
	}
	s.mu.Lock()
	s.lastFailed = false
	s.mu.Unlock()
	log.Printf("[INFO] refresh done: %d instruments, %d days", len(rm.Available), rm.Normalized.Len())
}

func (s *Scheduler) purgeTask() {
	if n := s.Purger.Purge(); n > 0 {
		log.Printf("[INFO] purged %d expired cache entries", n)
	}
}

func (s *Scheduler) digestTask() {
	log.Println("[INFO] running digest task")
	rm, err := s.runAndRecord(s.Ctx, "DIGEST")
	if err != nil {
		log.Printf("[ERROR] digest: %v", err)
		s.notify(notifier.FormatFailure(err))
		return
	}
	s.notify(notifier.FormatDigest(rm))
}

func (s *Scheduler) notify(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}

// HandleCommand answers a bot command.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	// Group chats append the bot name: /snapshot@BenchBoardBot
	command, _, _ = strings.Cut(fields[0], "@")

	switch command {
	case "/snapshot":
		rm, err := s.runAndRecord(ctx, "BOT")
		if err != nil {
			return notifier.FormatFailure(err)
		}
		return notifier.FormatDigest(rm)
	case "/runs":
		runs, err := s.Recorder.RecentRuns(10)
		if err != nil {
			return notifier.FormatFailure(err)
		}
		return notifier.FormatRuns(runs)
	case "/help", "/start":
		return "📖 <b>Commands</b>\n\n/snapshot - performance since the configured start\n/runs - recent pipeline runs"
	default:
		return "Unknown command, try /help"
	}
}
