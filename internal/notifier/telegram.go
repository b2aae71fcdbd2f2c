package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// DefaultTelegramAPI is the Telegram Bot API root.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier delivers performance digests via the Telegram Bot API.
type TelegramNotifier struct {
	APIBase  string
	BotToken string
	ChatID   string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		APIBase:  DefaultTelegramAPI,
		BotToken: botToken,
		ChatID:   chatID,
		// Long enough to outlast a 30s getUpdates long poll.
		Client: &http.Client{
			Timeout:   40 * time.Second,
			Transport: transport,
		},
	}
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// call POSTs payload to a Bot API method and decodes the result into out,
// which may be nil.
func (t *TelegramNotifier) call(ctx context.Context, method string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: telegram API status %d, body: %s", method, resp.StatusCode, string(raw))
	}
	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !env.OK {
		return fmt.Errorf("%s: telegram API error: %s", method, env.Description)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}, nil)
}

// SendWithRetry sends a message, doubling the wait after each failed attempt.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var err error
	wait := time.Second
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		if err = t.Send(ctx, text); err == nil {
			return nil
		}
		if attempt > maxRetries {
			break
		}
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", attempt, maxRetries+1, err, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, err)
}
