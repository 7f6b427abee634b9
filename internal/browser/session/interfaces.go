// internal/browser/session/interfaces.go
package session

import (
	"context"

	"github.com/chromedp/chromedp"
)

// ActionExecutor runs chromedp actions against a live browser tab.
type ActionExecutor interface {
	// RunActions runs actions bound to both the session and ctx.
	RunActions(ctx context.Context, actions ...chromedp.Action) error

	// RunBackgroundActions runs actions bound to the session only, so they
	// complete even after ctx is canceled.
	RunBackgroundActions(ctx context.Context, actions ...chromedp.Action) error
}
