// internal/browser/session/session_test.go
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/element"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		arg   string
		name  string
		value any
		ok    bool
	}{
		{"no-zygote", "no-zygote", true, true},
		{"--no-zygote", "no-zygote", true, true},
		{"--lang=en-US", "lang", "en-US", true},
		{"proxy-server=http://p:8080", "proxy-server", "http://p:8080", true},
		{"--window-size=1280,720", "window-size", "1280,720", true},
		{"  ", "", nil, false},
		{"--", "", nil, false},
		{"=x", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, value, ok := parseFlag(tt.arg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestExecAllocatorOptions_GrowWithConfig(t *testing.T) {
	base := execAllocatorOptions(Options{})
	full := execAllocatorOptions(Options{
		Headless:     true,
		DisableGPU:   true,
		ExecPath:     "/usr/bin/chromium",
		WindowWidth:  1280,
		WindowHeight: 720,
		Args:         []string{"no-zygote", "", "lang=en-US"},
	})
	assert.Len(t, full, len(base)+5)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	stale := classify(errors.New("could not find node with given id (-32000)"))
	assert.ErrorIs(t, stale, element.ErrStaleElement)

	assert.ErrorIs(t, classify(fmt.Errorf("run: %w", context.Canceled)), context.Canceled)
	assert.NotErrorIs(t, classify(fmt.Errorf("run: %w", context.Canceled)), element.ErrStaleElement)

	other := errors.New("websocket closed")
	assert.Same(t, other, classify(other))
}

// findBrowser returns a local Chrome/Chromium binary, or "" when none is installed.
func findBrowser() string {
	if p := os.Getenv("STEADYHAND_CHROME"); p != "" {
		return p
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

const livePage = `<html><body>
<form id="f"><input name="q"><button id="go" type="button">Go</button></form>
<div id="hidden" style="display:none">secret</div>
<button id="off" disabled>Off</button>
<script>
document.getElementById('go').addEventListener('click', () => {
  setTimeout(() => {
    const p = document.createElement('p');
    p.id = 'out';
    p.textContent = 'searched';
    document.body.appendChild(p);
  }, 50);
});
</script>
</body></html>`

func TestSession_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	browser := findBrowser()
	if browser == "" {
		t.Skip("no Chrome or Chromium binary found")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(livePage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s, err := New(ctx, Options{Headless: true, DisableGPU: true, ExecPath: browser}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()
	assert.NotEmpty(t, s.ID())

	require.NoError(t, s.Navigate(ctx, srv.URL))

	f := element.NewDocument(s, element.WithDefaultWait(5), element.WithPoller(wait.NewPoller(50*time.Millisecond)))

	ok, err := f.IsElementVisibleImmediate(ctx, schemas.ID("hidden"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.IsElementPresentImmediate(ctx, schemas.ID("hidden"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.IsElementClickableImmediate(ctx, schemas.ID("off"))
	require.NoError(t, err)
	assert.False(t, ok)

	form, err := f.FindElementVisible(ctx, schemas.ID("f"))
	require.NoError(t, err)
	inputs, err := form.FindElementsPresent(ctx, schemas.XPath(".//input"))
	require.NoError(t, err)
	assert.Len(t, inputs, 1)

	out, err := form.ClickAndPresentAfter(ctx, schemas.ID("go"), schemas.ID("out"), 0)
	assert.True(t, wait.IsTimeout(err), "out is created outside the form scope")
	assert.Nil(t, out)

	out, err = f.FindElementContain(ctx, schemas.Tag("p"), "searched")
	require.NoError(t, err)
	text, err := out.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "searched", text)

	_, err = f.FindElementPresentAfter(ctx, schemas.CSS("p:::bad"), 0)
	assert.True(t, wait.IsStructural(err))
}
