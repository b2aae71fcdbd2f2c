package notifier

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"
)

// CommandHandler answers a bot command with an HTML reply, or "" for none.
type CommandHandler func(ctx context.Context, command string) string

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

const pollRetryDelay = 5 * time.Second

// StartPolling long-polls for bot commands from the configured chat. Blocks
// until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for ctx.Err() == nil {
		var updates []update
		err := t.call(ctx, "getUpdates", map[string]interface{}{
			"offset":          offset,
			"timeout":         30,
			"allowed_updates": []string{"message"},
		}, &updates)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] polling: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(ctx, u, handler)
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

// dispatch answers one update. Messages from other chats are ignored.
func (t *TelegramNotifier) dispatch(ctx context.Context, u update, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	if strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
		log.Printf("[WARN] ignoring message from chat %d", u.Message.Chat.ID)
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	log.Printf("[INFO] received command: %s", text)
	if reply := handler(ctx, text); reply != "" {
		if err := t.Send(ctx, reply); err != nil {
			log.Printf("[ERROR] send reply: %v", err)
		}
	}
}
