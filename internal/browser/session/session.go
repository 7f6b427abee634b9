// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/element"
)

// Session is one live browser tab driven over the DevTools protocol. It
// implements element.Driver, so the condition library runs against it unchanged.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	closeOnce sync.Once
}

var (
	_ element.Driver = (*Session)(nil)
	_ ActionExecutor = (*Session)(nil)
)

// New launches (or attaches to) a browser and opens a tab. The tab lives until
// Close is called or parent is canceled.
func New(parent context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(parent, opts.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(parent, execAllocatorOptions(opts)...)
	}

	sugar := logger.Named("cdp").Sugar()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	// The first Run starts the browser and creates the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil {
		tabCancel()
		allocCancel()
		return nil, errors.New("browser session started without a target")
	}

	id := string(c.Target.TargetID)
	s := &Session{
		id:  id,
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger: logger.With(zap.String("session_id", id)),
	}
	s.logger.Info("Browser session started.", zap.Bool("remote", opts.RemoteURL != ""), zap.Bool("headless", opts.Headless))
	return s, nil
}

// ID returns the DevTools target id, used as the test's session id.
func (s *Session) ID() string { return s.id }

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.RunActions(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// RunActions implements ActionExecutor.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	combined, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	err := chromedp.Run(combined, actions...)
	// Report the caller's cancellation rather than the combined context's.
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// RunBackgroundActions implements ActionExecutor.
func (s *Session) RunBackgroundActions(_ context.Context, actions ...chromedp.Action) error {
	return chromedp.Run(Detach(s.ctx), actions...)
}

// Close shuts the tab and, for launched browsers, the browser process.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.logger.Info("Browser session closed.")
	})
	return nil
}
