package recorder

import (
	"strings"
	"time"

	"BenchBoard/internal/model"
)

// Run statuses.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// RunEvent records one pipeline run.
type RunEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Trigger    string    `json:"trigger"` // HTTP, SCHEDULE, DIGEST, BOT or CLI
	Symbols    string    `json:"symbols"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Columns    int       `json:"columns"`
	Rows       int       `json:"rows"`
	Warnings   string    `json:"warnings,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Recorder persists run history.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecentRuns(limit int) ([]RunEvent, error)
	Close() error
}

// NewRunEvent summarizes a finished run. rm is nil when runErr is set.
func NewRunEvent(trigger string, symbols []string, start, end time.Time, rm *model.RenderModel, runErr error, elapsed time.Duration) *RunEvent {
	evt := &RunEvent{
		Timestamp:  time.Now(),
		Trigger:    trigger,
		Symbols:    strings.Join(symbols, ","),
		Start:      start.Format(model.DateLayout),
		End:        end.Format(model.DateLayout),
		Status:     StatusOK,
		DurationMs: elapsed.Milliseconds(),
	}
	if runErr != nil {
		evt.Status = StatusFailed
		evt.Error = runErr.Error()
		return evt
	}
	if rm != nil && rm.Normalized != nil {
		evt.Columns = len(rm.Normalized.Columns)
		evt.Rows = rm.Normalized.Len()
		kinds := make([]string, len(rm.Warnings))
		for i, w := range rm.Warnings {
			kinds[i] = string(w.Kind)
		}
		evt.Warnings = strings.Join(kinds, ",")
	}
	return evt
}
