// File: internal/browser/htmldoc/query.go
package htmldoc

import (
	"errors"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

// ErrUnsupportedStrategy is returned for locator strategies this driver cannot evaluate.
var ErrUnsupportedStrategy = errors.New("unsupported locator strategy")

// matcher returns the descendants of root matched by a compiled locator, in document order.
type matcher func(root *goquery.Selection) []*html.Node

func compile(loc schemas.Locator) (matcher, error) {
	switch loc.Strategy {
	case schemas.ByCSS:
		m, err := cascadia.Compile(loc.Value)
		if err != nil {
			return nil, wait.Structural("compile css selector", err)
		}
		return func(root *goquery.Selection) []*html.Node {
			return root.FindMatcher(m).Nodes
		}, nil
	case schemas.ByXPath:
		expr, err := xpath.Compile(loc.Value)
		if err != nil {
			return nil, wait.Structural("compile xpath", err)
		}
		// Absolute expressions ("//a") are evaluated from the scope but only its
		// descendants are kept.
		return func(root *goquery.Selection) []*html.Node {
			var out []*html.Node
			for _, n := range root.Nodes {
				for _, m := range htmlquery.QuerySelectorAll(n, expr) {
					if m.Type == html.ElementNode && descendantOf(m, n) {
						out = append(out, m)
					}
				}
			}
			return out
		}, nil
	case schemas.ByID:
		return filter(func(n *html.Node) bool {
			v, ok := attr(n, "id")
			return ok && v == loc.Value
		}), nil
	case schemas.ByName:
		return filter(func(n *html.Node) bool {
			v, ok := attr(n, "name")
			return ok && v == loc.Value
		}), nil
	case schemas.ByClass:
		want := strings.TrimSpace(loc.Value)
		if strings.ContainsAny(want, " \t\n") {
			return nil, wait.Structural("class locator", errors.New("compound class names are not allowed"))
		}
		return filter(func(n *html.Node) bool {
			v, _ := attr(n, "class")
			return slices.Contains(strings.Fields(v), want)
		}), nil
	case schemas.ByTag:
		want := strings.ToLower(strings.TrimSpace(loc.Value))
		return filter(func(n *html.Node) bool { return n.Data == want }), nil
	case schemas.ByLinkText:
		return filter(func(n *html.Node) bool {
			return n.Data == "a" && collapse(nodeText(n)) == collapse(loc.Value)
		}), nil
	case schemas.ByPartialLinkText:
		return filter(func(n *html.Node) bool {
			return n.Data == "a" && strings.Contains(collapse(nodeText(n)), loc.Value)
		}), nil
	default:
		return nil, wait.Structural("locate "+loc.String(), ErrUnsupportedStrategy)
	}
}

func descendantOf(n, root *html.Node) bool {
	if root.Type == html.DocumentNode {
		return n != root
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// filter walks every element below root and keeps those accepted by keep.
func filter(keep func(*html.Node) bool) matcher {
	return func(root *goquery.Selection) []*html.Node {
		var out []*html.Node
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && keep(c) {
					out = append(out, c)
				}
				walk(c)
			}
		}
		for _, n := range root.Nodes {
			walk(n)
		}
		return out
	}
}
