package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	baseURL  string
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegram creates a Telegram notifier. botToken comes from @BotFather,
// chatID is the target chat, group, or channel.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		baseURL:  telegramAPI,
		botToken: botToken,
		chatID:   chatID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewTelegramURL is NewTelegram with an explicit API endpoint, for tests.
func NewTelegramURL(baseURL, botToken, chatID string) *Telegram {
	t := NewTelegram(botToken, chatID)
	t.baseURL = baseURL
	return t
}

func (t *Telegram) Send(ctx context.Context, msg string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    msg,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}
	return nil
}
