// File: internal/reporting/chat/notifier_test.go
package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

var desc = schemas.TestDescriptor{Suite: "Checkout", Method: "TestPay"}

type webhook struct {
	mu       sync.Mutex
	messages []Message
	status   int
}

func newWebhook(t *testing.T, status int) (*httptest.Server, *webhook) {
	t.Helper()
	hook := &webhook{status: status}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hook.mu.Lock()
		hook.messages = append(hook.messages, msg)
		hook.mu.Unlock()
		w.WriteHeader(hook.status)
	}))
	t.Cleanup(server.Close)
	return server, hook
}

func (h *webhook) received() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Message(nil), h.messages...)
}

func fixedClock() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestNotifier_Messages(t *testing.T) {
	server, hook := newWebhook(t, http.StatusOK)
	n := New(Config{Enabled: true, WebhookURL: server.URL, Channel: "#qa", RateLimit: 100, Burst: 10, UniqueID: "4242"},
		server.Client(), zaptest.NewLogger(t))
	n.now = fixedClock

	require.True(t, n.Enabled())
	require.NoError(t, n.TestPassed(context.Background(), desc, "sess-ok"))
	require.NoError(t, n.TestFailed(context.Background(), desc, errors.New("timed out after 30s"), "sess-bad"))

	got := hook.received()
	require.Len(t, got, 2)

	passed := got[0]
	assert.Equal(t, "4242:Checkout:TestPay", passed.Test)
	assert.Equal(t, "passed", passed.Status)
	assert.Equal(t, "#qa", passed.Channel)
	assert.Equal(t, "sess-ok", passed.SessionID)
	assert.Equal(t, "2026-03-01T12:00:00Z", passed.SentAt)
	assert.Empty(t, passed.Error)
	_, err := uuid.Parse(passed.ID)
	assert.NoError(t, err, "message ids are uuids")

	failed := got[1]
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "timed out after 30s", failed.Error)
	assert.True(t, strings.HasPrefix(failed.Text, "4242:Checkout:TestPay failed (session sess-bad)"))
	assert.Contains(t, failed.Text, "timed out after 30s")
	assert.NotEqual(t, passed.ID, failed.ID)
}

func TestNotifier_OnlyFailures(t *testing.T) {
	server, hook := newWebhook(t, http.StatusOK)
	n := New(Config{Enabled: true, WebhookURL: server.URL, OnlyFailures: true}, server.Client(), nil)

	require.NoError(t, n.TestPassed(context.Background(), desc, "s"))
	require.NoError(t, n.TestFailed(context.Background(), desc, nil, "s"))

	got := hook.received()
	require.Len(t, got, 1)
	assert.Equal(t, "failed", got[0].Status)
	assert.Equal(t, "Checkout:TestPay", got[0].Test, "no unique id prefix when unset")
}

func TestNotifier_Errors(t *testing.T) {
	t.Run("webhook rejection", func(t *testing.T) {
		server, _ := newWebhook(t, http.StatusForbidden)
		n := New(Config{Enabled: true, WebhookURL: server.URL}, server.Client(), nil)
		err := n.TestFailed(context.Background(), desc, errors.New("boom"), "s")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 403")
	})

	t.Run("rate limiter honours context", func(t *testing.T) {
		server, hook := newWebhook(t, http.StatusOK)
		n := New(Config{Enabled: true, WebhookURL: server.URL, RateLimit: 0.001, Burst: 1}, server.Client(), nil)

		require.NoError(t, n.TestPassed(context.Background(), desc, "s"))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := n.TestPassed(ctx, desc, "s")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter")
		assert.Len(t, hook.received(), 1)
	})

	t.Run("disabled without webhook", func(t *testing.T) {
		assert.False(t, New(Config{Enabled: true}, nil, nil).Enabled())
		assert.False(t, New(Config{WebhookURL: "http://hooks.example.test"}, nil, nil).Enabled())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short \n", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
