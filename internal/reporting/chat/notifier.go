// File: internal/reporting/chat/notifier.go
package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxErrorText = 1500

// Config configures the webhook notifier.
type Config struct {
	Enabled    bool
	WebhookURL string
	Channel    string
	// RateLimit is messages per second; Burst is the bucket size.
	RateLimit    float64
	Burst        int
	OnlyFailures bool
	// UniqueID prefixes test names so parallel runs can be told apart.
	UniqueID string
}

// Message is the JSON body posted to the webhook.
type Message struct {
	ID        string `json:"id"`
	Channel   string `json:"channel,omitempty"`
	Text      string `json:"text"`
	Test      string `json:"test"`
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
	SentAt    string `json:"sent_at"`
}

// Notifier posts one message per finished test to an incoming webhook. Sends
// share a token bucket so a burst of failures cannot flood the channel.
type Notifier struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	now     func() time.Time
}

// New returns a Notifier. A nil httpClient uses http.DefaultClient.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Notifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Notifier{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("chat"),
		now:     time.Now,
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.Enabled && n.cfg.WebhookURL != ""
}

// TestFailed announces a failure together with its error text.
func (n *Notifier) TestFailed(ctx context.Context, desc schemas.TestDescriptor, err error, sessionID string) error {
	msg := n.message(desc, "failed", sessionID)
	if err != nil {
		msg.Error = truncate(err.Error(), maxErrorText)
		msg.Text += "\n" + msg.Error
	}
	return n.send(ctx, msg)
}

// TestPassed announces a pass unless the notifier only reports failures.
func (n *Notifier) TestPassed(ctx context.Context, desc schemas.TestDescriptor, sessionID string) error {
	if n.cfg.OnlyFailures {
		return nil
	}
	return n.send(ctx, n.message(desc, "passed", sessionID))
}

func (n *Notifier) message(desc schemas.TestDescriptor, status, sessionID string) Message {
	name := desc.Suite + ":" + desc.Method
	if n.cfg.UniqueID != "" {
		name = n.cfg.UniqueID + ":" + name
	}
	return Message{
		ID:        uuid.NewString(),
		Channel:   n.cfg.Channel,
		Text:      fmt.Sprintf("%s %s (session %s)", name, status, sessionID),
		Test:      name,
		Status:    status,
		SessionID: sessionID,
		SentAt:    n.now().UTC().Format(time.RFC3339),
	}
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("chat: rate limiter: %w", err)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("chat: encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("chat: post message for %s: %w", msg.Test, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat: post message for %s: unexpected status %d", msg.Test, resp.StatusCode)
	}
	n.logger.Debug("Notification sent.", zap.String("test", msg.Test), zap.String("status", msg.Status))
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
