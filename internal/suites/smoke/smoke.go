// File: internal/suites/smoke/smoke.go
package smoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/element"
	"github.com/xkilldash9x/steadyhand/internal/suite"
)

// Name is the registry name of the suite.
const Name = "smoke"

// DefaultMaxLinks bounds the number of links checked per page.
const DefaultMaxLinks = 25

// Session is an automation session the suite can drive.
type Session interface {
	element.Driver
	ID() string
	Navigate(ctx context.Context, url string) error
	Close() error
}

// Browser opens one Session per test attempt.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// attributeReader is implemented by nodes that expose their attributes.
type attributeReader interface {
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// Deps is what the suite needs from the composition root.
type Deps struct {
	Browser Browser
	BaseURL string
	// HTTPClient checks link targets; nil uses http.DefaultClient.
	HTTPClient *http.Client
	Finder     []element.Option
	MaxLinks   int
}

// Definition returns the registry entry for the smoke suite.
func Definition(deps Deps) suite.Definition {
	return suite.Definition{
		Name:        Name,
		Description: "Opens the application under test and checks that it renders and its links resolve.",
		New:         func() any { return &Suite{deps: deps} },
	}
}

// Suite checks that the application under test is up.
type Suite struct {
	deps    Deps
	session Session
	page    *element.Functions
	base    *url.URL
}

// SetupTest opens a session, publishes its id and loads the base URL.
func (s *Suite) SetupTest(t *suite.T) {
	if s.deps.Browser == nil {
		t.Fatal("no browser configured")
	}
	base, err := url.Parse(s.deps.BaseURL)
	if err != nil || base.Host == "" {
		t.Fatalf("browser.base_url %q is not a usable URL", s.deps.BaseURL)
	}
	s.base = base

	sess, err := s.deps.Browser.Open(t.Context())
	require.NoError(t, err, "open browser session")
	s.session = sess
	t.Cleanup(func() {
		if err := sess.Close(); err != nil {
			t.Logger().Warn("Failed to close session.", zap.Error(err))
		}
	})
	require.NoError(t, t.SetSessionID(sess.ID()))

	require.NoError(t, sess.Navigate(t.Context(), base.String()))
	s.page = element.NewDocument(sess, append([]element.Option{
		element.WithDefaultWait(t.Run().WaitSeconds),
		element.WithLogger(t.Logger()),
	}, s.deps.Finder...)...)
}

// TestBodyVisible waits for the page body to render.
func (s *Suite) TestBodyVisible(t *suite.T) {
	body, err := s.page.FindElementVisible(t.Context(), schemas.Tag("body"))
	require.NoError(t, err)

	text, err := body.Text(t.Context())
	require.NoError(t, err)
	t.Logf("body rendered with %d characters of text", len(text))
}

// TestLinksResolve requests every distinct http(s) link on the page and fails
// on 4xx and 5xx answers.
func (s *Suite) TestLinksResolve(t *suite.T) {
	ctx := t.Context()
	present, err := s.page.IsElementPresentImmediate(ctx, schemas.CSS("a[href]"))
	require.NoError(t, err)
	if !present {
		t.Log("page has no links")
		return
	}

	links, err := s.page.FindElementsPresent(ctx, schemas.CSS("a[href]"))
	require.NoError(t, err)

	targets := s.targets(ctx, t, links)
	client := s.deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	for _, target := range targets {
		status, err := check(ctx, client, target)
		if err != nil {
			t.Errorf("link %s: %v", target, err)
			continue
		}
		if status >= http.StatusBadRequest {
			t.Errorf("link %s answered %d", target, status)
		}
	}
	t.Logf("checked %d links", len(targets))
}

func (s *Suite) targets(ctx context.Context, t *suite.T, links []*element.Element) []string {
	limit := s.deps.MaxLinks
	if limit <= 0 {
		limit = DefaultMaxLinks
	}
	seen := make(map[string]struct{})
	var out []string
	for _, link := range links {
		reader, ok := link.Node().(attributeReader)
		if !ok {
			t.Fatalf("driver nodes do not expose attributes")
		}
		href, ok, err := reader.Attribute(ctx, "href")
		require.NoError(t, err)
		if !ok {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			t.Errorf("link %q is malformed: %v", href, err)
			continue
		}
		abs := s.base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		abs.Fragment = ""
		key := abs.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
		if len(out) == limit {
			break
		}
	}
	return out
}

// check issues HEAD, falling back to GET for servers that refuse it.
func check(ctx context.Context, client *http.Client, target string) (int, error) {
	status, err := request(ctx, client, http.MethodHead, target)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		return request(ctx, client, http.MethodGet, target)
	}
	return status, nil
}

func request(ctx context.Context, client *http.Client, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}
