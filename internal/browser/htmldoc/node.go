// File: internal/browser/htmldoc/node.go
package htmldoc

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/element"
)

// Node is a node of a Document.
type Node struct {
	doc *Document
	raw *html.Node
	id  string
}

var _ element.Node = (*Node)(nil)

func (n *Node) ID() string { return n.id }

// Selection exposes the node to goquery.
func (n *Node) Selection() *goquery.Selection {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.doc.doc.FindNodes(n.raw)
}

// Rect reads the box from the data-x, data-y, data-width and data-height
// attributes. Missing or malformed values read as zero.
func (n *Node) Rect(ctx context.Context) (schemas.Rect, error) {
	if err := ctx.Err(); err != nil {
		return schemas.Rect{}, err
	}
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	if !n.doc.attached(n.raw) {
		return schemas.Rect{}, element.ErrStaleElement
	}
	return schemas.Rect{
		X:      floatAttr(n.raw, "data-x"),
		Y:      floatAttr(n.raw, "data-y"),
		Width:  floatAttr(n.raw, "data-width"),
		Height: floatAttr(n.raw, "data-height"),
	}, nil
}

// Attribute returns the raw value of an attribute.
func (n *Node) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	if !n.doc.attached(n.raw) {
		return "", false, element.ErrStaleElement
	}
	v, ok := attr(n.raw, name)
	return v, ok, nil
}

// Text returns the node's text with whitespace collapsed.
func (n *Node) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	if !n.doc.attached(n.raw) {
		return "", element.ErrStaleElement
	}
	return collapse(nodeText(n.raw)), nil
}

func (n *Node) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.doc.click(ctx, n)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func floatAttr(n *html.Node, key string) float64 {
	v, ok := attr(n, key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && !rendered(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		// Block boundaries separate words.
		b.WriteByte(' ')
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// nonRendered elements never produce visible output.
var nonRendered = map[string]bool{
	"head": true, "script": true, "style": true, "template": true, "noscript": true, "title": true, "meta": true, "link": true,
}

// rendered reports whether n itself is shown, ignoring its ancestors.
func rendered(n *html.Node) bool {
	if nonRendered[n.Data] {
		return false
	}
	if _, ok := attr(n, "hidden"); ok {
		return false
	}
	if n.Data == "input" {
		if t, _ := attr(n, "type"); strings.EqualFold(strings.TrimSpace(t), "hidden") {
			return false
		}
	}
	style, _ := attr(n, "style")
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return !strings.Contains(style, "display:none") && !strings.Contains(style, "visibility:hidden")
}

// visible reports whether n and all of its element ancestors are rendered.
func visible(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && !rendered(p) {
			return false
		}
	}
	return true
}

// clickable is visible and enabled. A disabled fieldset disables its descendants.
func clickable(n *html.Node) bool {
	if !visible(n) {
		return false
	}
	if _, ok := attr(n, "disabled"); ok {
		return false
	}
	if v, _ := attr(n, "aria-disabled"); strings.EqualFold(v, "true") {
		return false
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "fieldset" {
			if _, ok := attr(p, "disabled"); ok {
				return false
			}
		}
	}
	return true
}
