// File: internal/element/finder.go
package element

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

const (
	// DefaultWaitSeconds is the wait timeout used when none is configured.
	DefaultWaitSeconds = 30
	// DefaultStabilityInterval separates the two position samples of NotMoving.
	DefaultStabilityInterval = 500 * time.Millisecond
)

// Finder is the full find/wait capability set. The document root and every
// resolved Element implement it, so lookups chain to any depth.
//
// Operations without a suffix use the configured default wait. "After" variants
// take an explicit timeout in seconds; "Immediate" variants probe exactly once.
// Boolean queries turn a wait timeout into false and return every other error.
type Finder interface {
	IsElementPresent(ctx context.Context, loc schemas.Locator) (bool, error)
	IsElementPresentAfter(ctx context.Context, loc schemas.Locator, seconds int) (bool, error)
	IsElementPresentImmediate(ctx context.Context, loc schemas.Locator) (bool, error)
	IsElementVisible(ctx context.Context, loc schemas.Locator) (bool, error)
	IsElementVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) (bool, error)
	IsElementVisibleImmediate(ctx context.Context, loc schemas.Locator) (bool, error)
	IsElementClickable(ctx context.Context, loc schemas.Locator) (bool, error)
	IsElementClickableAfter(ctx context.Context, loc schemas.Locator, seconds int) (bool, error)
	IsElementClickableImmediate(ctx context.Context, loc schemas.Locator) (bool, error)

	FindElementPresent(ctx context.Context, loc schemas.Locator) (*Element, error)
	FindElementPresentAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error)
	FindElementVisible(ctx context.Context, loc schemas.Locator) (*Element, error)
	FindElementVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error)
	FindElementClickable(ctx context.Context, loc schemas.Locator) (*Element, error)
	FindElementClickableAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error)
	FindElementNotMoving(ctx context.Context, loc schemas.Locator) (*Element, error)
	FindElementNotMovingAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error)
	FindElementContain(ctx context.Context, loc schemas.Locator, text string) (*Element, error)
	FindElementContainAfter(ctx context.Context, loc schemas.Locator, text string, seconds int) (*Element, error)

	FindElementsPresent(ctx context.Context, loc schemas.Locator) ([]*Element, error)
	FindElementsPresentAfter(ctx context.Context, loc schemas.Locator, seconds int) ([]*Element, error)
	FindElementsVisible(ctx context.Context, loc schemas.Locator) ([]*Element, error)
	FindElementsVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) ([]*Element, error)
	FindElementsClickable(ctx context.Context, loc schemas.Locator) ([]*Element, error)
	FindElementsClickableAfter(ctx context.Context, loc schemas.Locator, seconds int) ([]*Element, error)

	WaitElementToNotBePresent(ctx context.Context, loc schemas.Locator) error
	WaitElementToNotBePresentAfter(ctx context.Context, loc schemas.Locator, seconds int) error
	WaitElementToNotBeVisible(ctx context.Context, loc schemas.Locator) error
	WaitElementToNotBeVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) error

	ClickAndPresent(ctx context.Context, click, wait schemas.Locator) (*Element, error)
	ClickAndPresentAfter(ctx context.Context, click, wait schemas.Locator, seconds int) (*Element, error)
}

// Functions implements Finder against one search scope. It is immutable and safe
// for concurrent use as long as its Driver is.
type Functions struct {
	driver      Driver
	scope       Node // nil is the document root
	waitSeconds int
	stability   time.Duration
	poller      *wait.Poller
	logger      *zap.Logger
}

var (
	_ Finder = (*Functions)(nil)
	_ Finder = (*Element)(nil)
)

// Option configures a Functions value.
type Option func(*Functions)

// WithDefaultWait sets the timeout in seconds used by operations without an
// explicit one. Negative values are ignored.
func WithDefaultWait(seconds int) Option {
	return func(f *Functions) {
		if seconds >= 0 {
			f.waitSeconds = seconds
		}
	}
}

// WithPoller shares a poller, and with it the poll interval and observer.
func WithPoller(p *wait.Poller) Option {
	return func(f *Functions) {
		if p != nil {
			f.poller = p
		}
	}
}

// WithStabilityInterval sets the delay between the two NotMoving position samples.
func WithStabilityInterval(d time.Duration) Option {
	return func(f *Functions) {
		if d > 0 {
			f.stability = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Functions) {
		if logger != nil {
			f.logger = logger.Named("element")
		}
	}
}

// NewDocument returns the capability set rooted at the whole document.
func NewDocument(driver Driver, opts ...Option) *Functions {
	if driver == nil {
		panic("element.NewDocument called with a nil Driver")
	}
	f := &Functions{
		driver:      driver,
		waitSeconds: DefaultWaitSeconds,
		stability:   DefaultStabilityInterval,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.poller == nil {
		f.poller = wait.NewPoller(wait.DefaultInterval, wait.WithLogger(f.logger))
	}
	return f
}

// WaitSeconds returns the default timeout in seconds.
func (f *Functions) WaitSeconds() int { return f.waitSeconds }

// within returns a copy of f scoped to node.
func (f *Functions) within(node Node) *Functions {
	scoped := *f
	scoped.scope = node
	return &scoped
}

// wrap turns a resolved node into an Element scoped to itself.
func (f *Functions) wrap(node Node) *Element {
	return &Element{Functions: f.within(node), node: node}
}

func (f *Functions) wrapAll(nodes []Node) []*Element {
	out := make([]*Element, len(nodes))
	for i, n := range nodes {
		out[i] = f.wrap(n)
	}
	return out
}

// -- Boolean queries --

func (f *Functions) IsElementPresent(ctx context.Context, loc schemas.Locator) (bool, error) {
	return f.IsElementPresentAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) IsElementPresentAfter(ctx context.Context, loc schemas.Locator, seconds int) (bool, error) {
	_, err := f.FindElementPresentAfter(ctx, loc, seconds)
	return asBool(err)
}

func (f *Functions) IsElementPresentImmediate(ctx context.Context, loc schemas.Locator) (bool, error) {
	return f.IsElementPresentAfter(ctx, loc, 0)
}

func (f *Functions) IsElementVisible(ctx context.Context, loc schemas.Locator) (bool, error) {
	return f.IsElementVisibleAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) IsElementVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) (bool, error) {
	_, err := f.FindElementVisibleAfter(ctx, loc, seconds)
	return asBool(err)
}

func (f *Functions) IsElementVisibleImmediate(ctx context.Context, loc schemas.Locator) (bool, error) {
	return f.IsElementVisibleAfter(ctx, loc, 0)
}

func (f *Functions) IsElementClickable(ctx context.Context, loc schemas.Locator) (bool, error) {
	return f.IsElementClickableAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) IsElementClickableAfter(ctx context.Context, loc schemas.Locator, seconds int) (bool, error) {
	_, err := f.FindElementClickableAfter(ctx, loc, seconds)
	return asBool(err)
}

func (f *Functions) IsElementClickableImmediate(ctx context.Context, loc schemas.Locator) (bool, error) {
	return f.IsElementClickableAfter(ctx, loc, 0)
}

// asBool is the only place a wait timeout is swallowed.
func asBool(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case wait.IsTimeout(err):
		return false, nil
	default:
		return false, err
	}
}

// -- Single element --

func (f *Functions) FindElementPresent(ctx context.Context, loc schemas.Locator) (*Element, error) {
	return f.FindElementPresentAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementPresentAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error) {
	return f.findOne(ctx, condPresent, loc, seconds, schemas.ModeAny, nil)
}

func (f *Functions) FindElementVisible(ctx context.Context, loc schemas.Locator) (*Element, error) {
	return f.FindElementVisibleAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error) {
	return f.findOne(ctx, condVisible, loc, seconds, schemas.ModeVisible, nil)
}

func (f *Functions) FindElementClickable(ctx context.Context, loc schemas.Locator) (*Element, error) {
	return f.FindElementClickableAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementClickableAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error) {
	return f.findOne(ctx, condClickable, loc, seconds, schemas.ModeClickable, nil)
}

func (f *Functions) FindElementNotMoving(ctx context.Context, loc schemas.Locator) (*Element, error) {
	return f.FindElementNotMovingAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementNotMovingAfter(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error) {
	return f.findNotMoving(ctx, loc, seconds)
}

func (f *Functions) FindElementContain(ctx context.Context, loc schemas.Locator, text string) (*Element, error) {
	return f.FindElementContainAfter(ctx, loc, text, f.waitSeconds)
}

func (f *Functions) FindElementContainAfter(ctx context.Context, loc schemas.Locator, text string, seconds int) (*Element, error) {
	if text == "" {
		return nil, wait.Preconditionf("text to contain is required")
	}
	return f.findOne(ctx, condContains, loc, seconds, schemas.ModeAny, containsText(text))
}

// -- Collections --

func (f *Functions) FindElementsPresent(ctx context.Context, loc schemas.Locator) ([]*Element, error) {
	return f.FindElementsPresentAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementsPresentAfter(ctx context.Context, loc schemas.Locator, seconds int) ([]*Element, error) {
	return f.findAll(ctx, condPresent, loc, seconds, schemas.ModeAny)
}

func (f *Functions) FindElementsVisible(ctx context.Context, loc schemas.Locator) ([]*Element, error) {
	return f.FindElementsVisibleAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementsVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) ([]*Element, error) {
	return f.findAll(ctx, condVisible, loc, seconds, schemas.ModeVisible)
}

func (f *Functions) FindElementsClickable(ctx context.Context, loc schemas.Locator) ([]*Element, error) {
	return f.FindElementsClickableAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) FindElementsClickableAfter(ctx context.Context, loc schemas.Locator, seconds int) ([]*Element, error) {
	return f.findAll(ctx, condClickable, loc, seconds, schemas.ModeClickable)
}

// -- Absence --

func (f *Functions) WaitElementToNotBePresent(ctx context.Context, loc schemas.Locator) error {
	return f.WaitElementToNotBePresentAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) WaitElementToNotBePresentAfter(ctx context.Context, loc schemas.Locator, seconds int) error {
	return f.waitAbsent(ctx, condNotPresent, loc, seconds, schemas.ModeAny)
}

func (f *Functions) WaitElementToNotBeVisible(ctx context.Context, loc schemas.Locator) error {
	return f.WaitElementToNotBeVisibleAfter(ctx, loc, f.waitSeconds)
}

func (f *Functions) WaitElementToNotBeVisibleAfter(ctx context.Context, loc schemas.Locator, seconds int) error {
	return f.waitAbsent(ctx, condNotVisible, loc, seconds, schemas.ModeVisible)
}

// -- Composite --

func (f *Functions) ClickAndPresent(ctx context.Context, click, waitFor schemas.Locator) (*Element, error) {
	return f.ClickAndPresentAfter(ctx, click, waitFor, f.waitSeconds)
}

// ClickAndPresentAfter resolves click as clickable, clicks it, then resolves waitFor
// as present. Each half gets the full timeout. The wait locator is never probed if
// the click half fails.
func (f *Functions) ClickAndPresentAfter(ctx context.Context, click, waitFor schemas.Locator, seconds int) (*Element, error) {
	if err := checkLocator(waitFor); err != nil {
		return nil, err
	}
	target, err := f.FindElementClickableAfter(ctx, click, seconds)
	if err != nil {
		return nil, err
	}
	if err := target.Click(ctx); err != nil {
		return nil, err
	}
	return f.FindElementPresentAfter(ctx, waitFor, seconds)
}
