// File: internal/reporting/buildfarm/client.go
package buildfarm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the remote session service credentials.
type Config struct {
	Enabled   bool
	URL       string
	Username  string
	AccessKey string
}

type jobUpdate struct {
	Passed bool `json:"passed"`
}

// Client marks remote sessions as passed or failed on the build farm that
// hosted them.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New returns a Client. A nil httpClient uses http.DefaultClient.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{cfg: cfg, http: httpClient, logger: logger.Named("buildfarm")}
}

// Enabled reports whether the client is switched on and fully configured.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.URL != "" && c.cfg.Username != "" && c.cfg.AccessKey != ""
}

// TestOutcome sends PUT {url}/rest/v1/{username}/jobs/{session} with the
// final result of the test that ran in that session.
func (c *Client) TestOutcome(ctx context.Context, passed bool, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("buildfarm: empty session id")
	}
	body, err := json.Marshal(jobUpdate{Passed: passed})
	if err != nil {
		return fmt.Errorf("buildfarm: encode job update: %w", err)
	}

	endpoint := c.cfg.URL + "/rest/v1/" + url.PathEscape(c.cfg.Username) + "/jobs/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("buildfarm: build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.AccessKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("buildfarm: update job %s: %w", sessionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("buildfarm: update job %s: unexpected status %d: %s",
			sessionID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("Job result updated.", zap.String("session_id", sessionID), zap.Bool("passed", passed))
	return nil
}
