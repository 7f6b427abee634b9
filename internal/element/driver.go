// File: internal/element/driver.go
package element

import (
	"context"
	"errors"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// ErrStaleElement indicates that a node reference is no longer attached to the
// document, usually because the page changed since it was resolved.
var ErrStaleElement = errors.New("element is stale or detached from the document")

// Node is an opaque reference to one node resolved by a Driver.
type Node interface {
	// ID is a driver-specific identifier, stable for the node's lifetime.
	ID() string
	// Rect reports the node's on-screen box.
	Rect(ctx context.Context) (schemas.Rect, error)
	// Text reports the node's rendered text.
	Text(ctx context.Context) (string, error)
	// Click performs a click on the node.
	Click(ctx context.Context) error
}

// Driver is the locate capability the conditions are built on.
//
// Locate returns the nodes matching loc inside scope (nil scope means the whole
// document), filtered by mode. It returns an empty slice rather than an error when
// nothing matches. Malformed locators are reported as *wait.StructuralError, and a
// detached scope as ErrStaleElement.
type Driver interface {
	Locate(ctx context.Context, scope Node, loc schemas.Locator, mode schemas.Mode) ([]Node, error)
}
