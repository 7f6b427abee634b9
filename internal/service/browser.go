// File: internal/service/browser.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/browser/session"
	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/suites/smoke"
)

// sessionOptions translates the browser configuration into session options.
func sessionOptions(cfg config.BrowserConfig) session.Options {
	return session.Options{
		RemoteURL:    cfg.RemoteURL,
		ExecPath:     cfg.ExecPath,
		Headless:     cfg.Headless,
		DisableGPU:   cfg.DisableGPU,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Args:         append([]string(nil), cfg.Args...),
	}
}

// sessionBrowser opens a fresh chromedp session for every test attempt.
type sessionBrowser struct {
	opts   session.Options
	logger *zap.Logger
}

var _ smoke.Browser = (*sessionBrowser)(nil)

func (b *sessionBrowser) Open(ctx context.Context) (smoke.Session, error) {
	s, err := session.New(ctx, b.opts, b.logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}
