// File: internal/element/element.go
package element

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// Element is a resolved node that is itself a Finder scoped to its own subtree.
// It carries the wait configuration of the Finder that produced it.
type Element struct {
	*Functions
	node Node
}

// Node returns the underlying driver node.
func (e *Element) Node() Node { return e.node }

// ID returns the driver's identifier for the node.
func (e *Element) ID() string { return e.node.ID() }

// Click clicks the element once. It is not retried.
func (e *Element) Click(ctx context.Context) error {
	if err := e.node.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", e.node.ID(), err)
	}
	return nil
}

// Text returns the element's rendered text.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.node.Text(ctx)
}

// Rect returns the element's on-screen box.
func (e *Element) Rect(ctx context.Context) (schemas.Rect, error) {
	return e.node.Rect(ctx)
}
