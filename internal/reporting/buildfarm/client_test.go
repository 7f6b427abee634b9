// File: internal/reporting/buildfarm/client_test.go
package buildfarm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type captured struct {
	mu     sync.Mutex
	method string
	path   string
	user   string
	pass   string
	body   string
	ctype  string
}

func newFarm(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.method, c.path = r.Method, r.URL.EscapedPath()
		c.user, c.pass, _ = r.BasicAuth()
		c.ctype = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		c.body = string(b)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	t.Cleanup(server.Close)
	return server, c
}

func TestClient_Enabled(t *testing.T) {
	full := Config{Enabled: true, URL: "https://farm.example.test", Username: "ci", AccessKey: "k"}
	assert.True(t, New(full, nil, nil).Enabled())

	for name, mutate := range map[string]func(*Config){
		"switched off": func(c *Config) { c.Enabled = false },
		"no url":       func(c *Config) { c.URL = "" },
		"no username":  func(c *Config) { c.Username = "" },
		"no key":       func(c *Config) { c.AccessKey = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := full
			mutate(&cfg)
			assert.False(t, New(cfg, nil, nil).Enabled())
		})
	}
}

func TestClient_TestOutcome(t *testing.T) {
	t.Run("puts the result with basic auth", func(t *testing.T) {
		server, got := newFarm(t, http.StatusOK)
		client := New(Config{Enabled: true, URL: server.URL + "/", Username: "ci bot", AccessKey: "s3cret"},
			server.Client(), zaptest.NewLogger(t))

		require.NoError(t, client.TestOutcome(context.Background(), true, "abc123"))

		got.mu.Lock()
		defer got.mu.Unlock()
		assert.Equal(t, http.MethodPut, got.method)
		assert.Equal(t, "/rest/v1/ci%20bot/jobs/abc123", got.path)
		assert.Equal(t, "ci bot", got.user)
		assert.Equal(t, "s3cret", got.pass)
		assert.Equal(t, "application/json", got.ctype)
		assert.JSONEq(t, `{"passed":true}`, got.body)
	})

	t.Run("failed result", func(t *testing.T) {
		server, got := newFarm(t, http.StatusNoContent)
		client := New(Config{Enabled: true, URL: server.URL, Username: "ci", AccessKey: "k"}, server.Client(), nil)

		require.NoError(t, client.TestOutcome(context.Background(), false, "s-1"))
		got.mu.Lock()
		defer got.mu.Unlock()
		assert.JSONEq(t, `{"passed":false}`, got.body)
	})

	t.Run("non-2xx is an error with the response snippet", func(t *testing.T) {
		server, _ := newFarm(t, http.StatusUnauthorized)
		client := New(Config{Enabled: true, URL: server.URL, Username: "ci", AccessKey: "bad"}, server.Client(), nil)

		err := client.TestOutcome(context.Background(), true, "s-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 401")
		assert.Contains(t, err.Error(), `{"error":"nope"}`)
	})

	t.Run("empty session id", func(t *testing.T) {
		client := New(Config{Enabled: true, URL: "http://127.0.0.1:1", Username: "ci", AccessKey: "k"}, nil, nil)
		assert.Error(t, client.TestOutcome(context.Background(), true, ""))
	})

	t.Run("canceled context", func(t *testing.T) {
		server, _ := newFarm(t, http.StatusOK)
		client := New(Config{Enabled: true, URL: server.URL, Username: "ci", AccessKey: "k"}, server.Client(), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := client.TestOutcome(ctx, true, "s-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
