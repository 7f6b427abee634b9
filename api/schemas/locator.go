// File: api/schemas/locator.go
package schemas

import (
	"fmt"
	"strings"
)

// Strategy names how a Locator's value is interpreted by a driver.
type Strategy string

const (
	ByCSS             Strategy = "css"
	ByXPath           Strategy = "xpath"
	ByID              Strategy = "id"
	ByName            Strategy = "name"
	ByClass           Strategy = "class"
	ByTag             Strategy = "tag"
	ByLinkText        Strategy = "link"
	ByPartialLinkText Strategy = "partial_link"
)

var knownStrategies = map[Strategy]struct{}{
	ByCSS: {}, ByXPath: {}, ByID: {}, ByName: {}, ByClass: {}, ByTag: {},
	ByLinkText: {}, ByPartialLinkText: {},
}

// Locator is an immutable rule identifying zero or more nodes within a search scope.
// The zero value is not a valid locator.
type Locator struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
	Value    string   `json:"value" yaml:"value"`
}

// CSS returns a locator for a CSS selector.
func CSS(selector string) Locator { return Locator{Strategy: ByCSS, Value: selector} }

// XPath returns a locator for an XPath expression.
func XPath(expr string) Locator { return Locator{Strategy: ByXPath, Value: expr} }

// ID returns a locator matching the element id attribute.
func ID(id string) Locator { return Locator{Strategy: ByID, Value: id} }

// Name returns a locator matching the name attribute.
func Name(name string) Locator { return Locator{Strategy: ByName, Value: name} }

// Class returns a locator matching a single class name.
func Class(class string) Locator { return Locator{Strategy: ByClass, Value: class} }

// Tag returns a locator matching a tag name.
func Tag(tag string) Locator { return Locator{Strategy: ByTag, Value: tag} }

// LinkText returns a locator matching anchors whose text equals text.
func LinkText(text string) Locator { return Locator{Strategy: ByLinkText, Value: text} }

// PartialLinkText returns a locator matching anchors whose text contains text.
func PartialLinkText(text string) Locator {
	return Locator{Strategy: ByPartialLinkText, Value: text}
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Strategy == "" && l.Value == ""
}

// Valid reports whether the locator has a known strategy and a non-empty value.
func (l Locator) Valid() bool {
	if strings.TrimSpace(l.Value) == "" {
		return false
	}
	_, ok := knownStrategies[l.Strategy]
	return ok
}

// String renders the locator in the strategy=value form accepted by ParseLocator.
func (l Locator) String() string {
	if l.IsZero() {
		return "<nil locator>"
	}
	return string(l.Strategy) + "=" + l.Value
}

// ParseLocator parses the "strategy=value" text form. A value without a known
// strategy prefix is treated as a CSS selector, so "a[href='x=y']" stays CSS.
func ParseLocator(s string) (Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Locator{}, fmt.Errorf("locator is empty")
	}
	if prefix, value, found := strings.Cut(s, "="); found {
		strategy := Strategy(strings.ToLower(strings.TrimSpace(prefix)))
		if _, ok := knownStrategies[strategy]; ok {
			value = strings.TrimSpace(value)
			if value == "" {
				return Locator{}, fmt.Errorf("locator %q has an empty %s value", s, strategy)
			}
			return Locator{Strategy: strategy, Value: value}, nil
		}
	}
	return CSS(s), nil
}

// Mode restricts which located nodes a driver returns.
type Mode int

const (
	// ModeAny returns every node matching the locator.
	ModeAny Mode = iota
	// ModeVisible returns only nodes that are rendered and visible.
	ModeVisible
	// ModeClickable returns only visible nodes that accept interaction.
	ModeClickable
)

func (m Mode) String() string {
	switch m {
	case ModeAny:
		return "any"
	case ModeVisible:
		return "visible"
	case ModeClickable:
		return "clickable"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Rect is an element's on-screen box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
