// File: internal/browser/htmldoc/document.go

// Package htmldoc is a static, in-memory element.Driver backed by goquery. It
// evaluates locators, visibility and clickability from markup alone, which makes
// it suitable for fast suites and for exercising the condition library without a
// browser.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/element"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

// ClickHandler reacts to a click on a node matched by its registered selector. It
// runs outside the document lock and may call Mutate or Load.
type ClickHandler func(ctx context.Context, doc *Document, target *goquery.Selection) error

type clickHook struct {
	matcher cascadia.Matcher
	handler ClickHandler
}

// Document holds one parsed page. It is safe for concurrent use.
type Document struct {
	id     string
	logger *zap.Logger

	mu    sync.RWMutex
	doc   *goquery.Document
	hooks []clickHook

	nextID atomic.Uint64
	ids    sync.Map // *html.Node -> string
}

var _ element.Driver = (*Document)(nil)

// New creates an empty document. Call Load before locating anything.
func New(logger *zap.Logger) *Document {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Document{id: "static-" + uuid.NewString(), logger: logger.Named("htmldoc")}
	d.doc = goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	return d
}

// Parse creates a document from markup.
func Parse(markup string, logger *zap.Logger) (*Document, error) {
	d := New(logger)
	if err := d.Load(strings.NewReader(markup)); err != nil {
		return nil, err
	}
	return d, nil
}

// ID identifies the document, for use as a session id.
func (d *Document) ID() string { return d.id }

// Load replaces the page. Nodes resolved from the previous page become stale.
func (d *Document) Load(r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	d.mu.Lock()
	d.doc = doc
	d.mu.Unlock()
	d.logger.Debug("Document loaded.", zap.String("title", strings.TrimSpace(doc.Find("title").First().Text())))
	return nil
}

// LoadString is Load for an in-memory string.
func (d *Document) LoadString(markup string) error {
	return d.Load(strings.NewReader(markup))
}

// Mutate runs fn with exclusive access to the page. Nodes removed by fn become stale.
func (d *Document) Mutate(fn func(doc *goquery.Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.doc)
}

// HTML renders the current page.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Html()
}

// HandleClick registers handler for clicks on nodes matching the CSS selector.
func (d *Document) HandleClick(selector string, handler ClickHandler) error {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return wait.Structural("compile css selector", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, clickHook{matcher: m, handler: handler})
	return nil
}

// Locate implements element.Driver.
func (d *Document) Locate(ctx context.Context, scope element.Node, loc schemas.Locator, mode schemas.Mode) ([]element.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	match, err := compile(loc)
	if err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	root := d.doc.Selection
	if scope != nil {
		n, ok := scope.(*Node)
		if !ok || n.doc != d {
			return nil, fmt.Errorf("scope %s does not belong to this document", scope.ID())
		}
		if !d.attached(n.raw) {
			return nil, element.ErrStaleElement
		}
		root = d.doc.FindNodes(n.raw)
	}

	var out []element.Node
	for _, raw := range match(root) {
		if !satisfies(raw, mode) {
			continue
		}
		out = append(out, d.wrap(raw))
	}
	return out, nil
}

func satisfies(n *html.Node, mode schemas.Mode) bool {
	switch mode {
	case schemas.ModeVisible:
		return visible(n)
	case schemas.ModeClickable:
		return clickable(n)
	default:
		return true
	}
}

// attached reports whether n is still reachable from the current page root.
// Callers hold d.mu.
func (d *Document) attached(n *html.Node) bool {
	root := d.doc.Nodes[0]
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func (d *Document) wrap(raw *html.Node) *Node {
	id, ok := d.ids.Load(raw)
	if !ok {
		id, _ = d.ids.LoadOrStore(raw, fmt.Sprintf("node-%d", d.nextID.Add(1)))
	}
	return &Node{doc: d, raw: raw, id: id.(string)}
}

// click runs the matching click handlers in registration order.
func (d *Document) click(ctx context.Context, n *Node) error {
	d.mu.RLock()
	if !d.attached(n.raw) {
		d.mu.RUnlock()
		return element.ErrStaleElement
	}
	if !clickable(n.raw) {
		d.mu.RUnlock()
		return fmt.Errorf("element %s is not interactable", n.id)
	}
	var handlers []ClickHandler
	for _, h := range d.hooks {
		if h.matcher.Match(n.raw) {
			handlers = append(handlers, h.handler)
		}
	}
	target := d.doc.FindNodes(n.raw)
	d.mu.RUnlock()

	d.logger.Debug("Click dispatched.", zap.String("node", n.id), zap.Int("handlers", len(handlers)))
	for _, h := range handlers {
		if err := h(ctx, d, target); err != nil {
			return err
		}
	}
	return nil
}
