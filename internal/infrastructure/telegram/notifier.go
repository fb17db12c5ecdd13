package telegram

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"KhiphopPipeline/internal/infrastructure/httpx"
	"KhiphopPipeline/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends run reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *httpx.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// Option customizes the notifier.
type Option func(*Notifier)

// WithAPIBase points the notifier at another bot API host.
func WithAPIBase(base string) Option {
	return func(n *Notifier) {
		n.apiBase = strings.TrimRight(base, "/")
	}
}

// WithClient overrides the HTTP transport.
func WithClient(client *httpx.Client) Option {
	return func(n *Notifier) {
		n.client = client
	}
}

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, opts ...Option) *Notifier {
	n := &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   httpx.New(httpx.WithTimeout(5*time.Second), httpx.WithRetries(1, time.Second)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify posts a plain text message to the chat.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", message)
	form.Set("disable_web_page_preview", "true")

	var resp sendMessageResponse
	if err := n.client.PostForm(ctx, endpoint, nil, form, &resp); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram error: %s", resp.Description)
	}
	return nil
}
