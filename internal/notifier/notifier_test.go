package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BenchBoard/internal/model"
	"BenchBoard/internal/recorder"
)

func TestSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	if err := tn.Send(context.Background(), "<b>hi</b>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "<b>hi</b>" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	if err := tn.Send(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tn.SendWithRetry(ctx, "x", 2); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSend_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	if err := tn.Send(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("expected API description in error, got %v", err)
	}
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":"/runs","chat":{"id":99}}},
				{"update_id":8,"message":{"text":"hello","chat":{"id":42}}},
				{"update_id":9,"message":{"text":" /runs ","chat":{"id":42}}}
			]}`))
		case "/botTOKEN/sendMessage":
			var p map[string]interface{}
			json.NewDecoder(r.Body).Decode(&p)
			replies = append(replies, p["text"].(string))
			w.Write([]byte(`{"ok":true,"result":{}}`))
			cancel()
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL

	var commands []string
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			commands = append(commands, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	if len(commands) != 1 || commands[0] != "/runs" {
		t.Errorf("expected only the command from the configured chat, got %q", commands)
	}
	if len(replies) != 1 || replies[0] != "reply to /runs" {
		t.Errorf("unexpected replies %q", replies)
	}
}

func TestFormatDigest(t *testing.T) {
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	display := model.NewPriceTable([]time.Time{day})
	display.AddColumn("Gold", []model.Value{model.Some(0)})
	display.AddColumn("S&P 500", []model.Value{model.Some(0)})

	rm := &model.RenderModel{
		Start:   day,
		End:     day.AddDate(0, 1, 0),
		Display: display,
		Summaries: []model.ColumnSummary{
			{Label: "Bitcoin", Change: 80},
			{Label: "Gold", Change: -3.5},
			{Label: "S&P 500", Change: 12.25},
		},
		Warnings: []model.Warning{{Kind: model.WarnPartialDataLoss, Message: "no data returned for Crude Oil"}},
	}
	out := FormatDigest(rm)

	if strings.Contains(out, "Bitcoin") {
		t.Error("hidden instrument listed")
	}
	sp, gold := strings.Index(out, "S&amp;P 500"), strings.Index(out, "Gold")
	if sp < 0 || gold < 0 || sp > gold {
		t.Errorf("expected escaped S&P first:\n%s", out)
	}
	for _, want := range []string{"+12.25%", "-3.50%", "2023-01-02", "Crude Oil"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in digest:\n%s", want, out)
		}
	}
}

func TestFormatFailure_Truncates(t *testing.T) {
	body := strings.Repeat("<html>", 2000)
	out := FormatFailure(errors.New("yahoo: status 503, body: " + body))
	if n := len([]rune(out)); n > 4096 {
		t.Errorf("alert is %d characters, above the Telegram limit", n)
	}
	if !strings.Contains(out, "status 503") || !strings.HasSuffix(out, "…") {
		t.Errorf("unexpected alert:\n%s", out)
	}
}

func TestFormatRuns(t *testing.T) {
	if FormatRuns(nil) != "No runs recorded yet." {
		t.Error("unexpected empty output")
	}
	out := FormatRuns([]recorder.RunEvent{
		{Trigger: "HTTP", Status: recorder.StatusOK, Start: "2023-01-01", End: "2023-03-31", Columns: 8},
		{Trigger: "SCHEDULE", Status: recorder.StatusFailed, Error: "fetch: <timeout>"},
	})
	if !strings.Contains(out, "✅") || !strings.Contains(out, "❌") || !strings.Contains(out, "&lt;timeout&gt;") {
		t.Errorf("unexpected runs output:\n%s", out)
	}
}
