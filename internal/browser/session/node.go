// internal/browser/session/node.go
package session

import (
	"context"
	"strconv"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/element"
)

// Node is a DOM node of a Session's current page.
type Node struct {
	session *Session
	node    *cdp.Node
}

var _ element.Node = (*Node)(nil)

// ID returns the backend node id, which is stable for the node's lifetime.
func (n *Node) ID() string { return strconv.FormatInt(int64(n.node.BackendNodeID), 10) }

// CDP exposes the underlying protocol node.
func (n *Node) CDP() *cdp.Node { return n.node }

const rectJS = `function() {
  if (!this.isConnected) return {stale: true};
  const r = this.getBoundingClientRect();
  return {x: r.x, y: r.y, width: r.width, height: r.height};
}`

const textJS = `function() {
  if (!this.isConnected) return {stale: true};
  return {text: (this.innerText || this.textContent || '').replace(/\s+/g, ' ').trim()};
}`

const connectedJS = `function() { return this.isConnected; }`

const attributeJS = `function(name) {
  if (!this.isConnected) return {stale: true};
  return {present: this.hasAttribute(name), value: this.getAttribute(name) || ''};
}`

func (n *Node) Rect(ctx context.Context) (schemas.Rect, error) {
	var res struct {
		Stale  bool    `json:"stale"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := n.call(ctx, rectJS, &res); err != nil {
		return schemas.Rect{}, err
	}
	if res.Stale {
		return schemas.Rect{}, element.ErrStaleElement
	}
	return schemas.Rect{X: res.X, Y: res.Y, Width: res.Width, Height: res.Height}, nil
}

func (n *Node) Text(ctx context.Context) (string, error) {
	var res struct {
		Stale bool   `json:"stale"`
		Text  string `json:"text"`
	}
	if err := n.call(ctx, textJS, &res); err != nil {
		return "", err
	}
	if res.Stale {
		return "", element.ErrStaleElement
	}
	return res.Text, nil
}

// Attribute reads an attribute of the live node.
func (n *Node) Attribute(ctx context.Context, name string) (string, bool, error) {
	var res struct {
		Stale   bool   `json:"stale"`
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	err := n.session.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, n.node, attributeJS, &res, name)
	}))
	if err = classify(err); err != nil {
		return "", false, err
	}
	if res.Stale {
		return "", false, element.ErrStaleElement
	}
	return res.Value, res.Present, nil
}

// Click scrolls the node into view and clicks its center.
func (n *Node) Click(ctx context.Context) error {
	var connected bool
	if err := n.call(ctx, connectedJS, &connected); err != nil {
		return err
	}
	if !connected {
		return element.ErrStaleElement
	}
	return classify(n.session.RunActions(ctx, chromedp.MouseClickNode(n.node)))
}

func (n *Node) call(ctx context.Context, fn string, res any) error {
	err := n.session.RunActions(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, n.node, fn, res)
	}))
	return classify(err)
}
