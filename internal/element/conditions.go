// File: internal/element/conditions.go
package element

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/wait"
)

// Condition names, used in timeout messages and metrics labels.
const (
	condPresent    = "present"
	condVisible    = "visible"
	condClickable  = "clickable"
	condNotMoving  = "not_moving"
	condContains   = "contains"
	condNotPresent = "not_present"
	condNotVisible = "not_visible"
)

// nodeCheck decides whether one located node satisfies a condition. It returns
// wait.ErrNotSatisfied (wrapped) when it does not.
type nodeCheck func(ctx context.Context, n Node) error

func checkLocator(loc schemas.Locator) error {
	if loc.IsZero() {
		return wait.Preconditionf("locator is required")
	}
	if !loc.Valid() {
		return wait.Preconditionf("invalid locator %s", loc)
	}
	return nil
}

func conditionName(cond string, loc schemas.Locator) string {
	return cond + "(" + loc.String() + ")"
}

// prepare validates the arguments shared by every condition.
func prepare(loc schemas.Locator, seconds int) (time.Duration, error) {
	if err := checkLocator(loc); err != nil {
		return 0, err
	}
	return wait.Seconds(seconds)
}

// locate runs one lookup and classifies the outcome for the poller. An empty
// result is "not yet"; a stale scope is fatal because no later probe can recover it.
func (f *Functions) locate(ctx context.Context, loc schemas.Locator, mode schemas.Mode) ([]Node, error) {
	nodes, err := f.driver.Locate(ctx, f.scope, loc, mode)
	if err != nil {
		return nil, fmt.Errorf("locate %s (%s): %w", loc, mode, err)
	}
	if len(nodes) == 0 {
		return nil, wait.NotSatisfiedf("no %s node matches %s", mode, loc)
	}
	return nodes, nil
}

// findOne polls until a node matching loc under mode passes check (nil check accepts
// the first node).
func (f *Functions) findOne(ctx context.Context, cond string, loc schemas.Locator, seconds int, mode schemas.Mode, check nodeCheck) (*Element, error) {
	timeout, err := prepare(loc, seconds)
	if err != nil {
		return nil, err
	}

	node, err := wait.Until(ctx, f.poller, conditionName(cond, loc), timeout, func(ctx context.Context) (Node, error) {
		nodes, err := f.locate(ctx, loc, mode)
		if err != nil {
			return nil, err
		}
		if check == nil {
			return nodes[0], nil
		}
		var last error
		for _, n := range nodes {
			err := check(ctx, n)
			if err == nil {
				return n, nil
			}
			if !errors.Is(err, wait.ErrNotSatisfied) {
				return nil, err
			}
			last = err
		}
		return nil, last
	})
	if err != nil {
		f.logger.Debug("Condition failed.", zap.String("condition", cond), zap.Stringer("locator", loc), zap.Error(err))
		return nil, err
	}
	return f.wrap(node), nil
}

// findAll polls until at least one node matches and returns every node matching at
// that moment.
func (f *Functions) findAll(ctx context.Context, cond string, loc schemas.Locator, seconds int, mode schemas.Mode) ([]*Element, error) {
	timeout, err := prepare(loc, seconds)
	if err != nil {
		return nil, err
	}
	nodes, err := wait.Until(ctx, f.poller, conditionName(cond+"_all", loc), timeout, func(ctx context.Context) ([]Node, error) {
		return f.locate(ctx, loc, mode)
	})
	if err != nil {
		return nil, err
	}
	return f.wrapAll(nodes), nil
}

// waitAbsent polls until no node matches loc under mode.
func (f *Functions) waitAbsent(ctx context.Context, cond string, loc schemas.Locator, seconds int, mode schemas.Mode) error {
	timeout, err := prepare(loc, seconds)
	if err != nil {
		return err
	}
	return wait.Check(ctx, f.poller, conditionName(cond, loc), timeout, func(ctx context.Context) (bool, error) {
		nodes, err := f.driver.Locate(ctx, f.scope, loc, mode)
		if err != nil {
			return false, fmt.Errorf("locate %s (%s): %w", loc, mode, err)
		}
		return len(nodes) == 0, nil
	})
}

// findNotMoving samples the position of every matching node, waits one stability
// interval, samples again and accepts the first node whose samples agree. The
// wait between samples never runs past the condition's deadline.
func (f *Functions) findNotMoving(ctx context.Context, loc schemas.Locator, seconds int) (*Element, error) {
	timeout, err := prepare(loc, seconds)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)

	node, err := wait.Until(ctx, f.poller, conditionName(condNotMoving, loc), timeout, func(ctx context.Context) (Node, error) {
		nodes, err := f.locate(ctx, loc, schemas.ModeAny)
		if err != nil {
			return nil, err
		}
		before := make([]schemas.Rect, len(nodes))
		live := make([]bool, len(nodes))
		var last error
		for i, n := range nodes {
			r, err := n.Rect(ctx)
			if err != nil {
				if err = staleAsNotSatisfied(err); !errors.Is(err, wait.ErrNotSatisfied) {
					return nil, err
				}
				last = err
				continue
			}
			before[i], live[i] = r, true
		}

		pause := min(f.stability, time.Until(deadline))
		if pause > 0 {
			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		if pause < f.stability {
			return nil, wait.NotSatisfiedf("%s: deadline reached before the %s stability interval elapsed", loc, f.stability)
		}

		for i, n := range nodes {
			if !live[i] {
				continue
			}
			after, err := n.Rect(ctx)
			if err != nil {
				if err = staleAsNotSatisfied(err); !errors.Is(err, wait.ErrNotSatisfied) {
					return nil, err
				}
				last = err
				continue
			}
			if before[i] == after {
				return n, nil
			}
			last = wait.NotSatisfiedf("%s moved from (%.1f,%.1f) to (%.1f,%.1f)", loc, before[i].X, before[i].Y, after.X, after.Y)
		}
		if last == nil {
			last = wait.NotSatisfiedf("no stable node matches %s", loc)
		}
		return nil, last
	})
	if err != nil {
		f.logger.Debug("Condition failed.", zap.String("condition", condNotMoving), zap.Stringer("locator", loc), zap.Error(err))
		return nil, err
	}
	return f.wrap(node), nil
}

// containsText accepts nodes whose rendered text includes text.
func containsText(text string) nodeCheck {
	return func(ctx context.Context, n Node) error {
		got, err := n.Text(ctx)
		if err != nil {
			return staleAsNotSatisfied(err)
		}
		if !strings.Contains(got, text) {
			return wait.NotSatisfiedf("text %q does not contain %q", truncate(got, 80), text)
		}
		return nil
	}
}

// staleAsNotSatisfied lets a probe retry when a candidate node detached between
// locating it and inspecting it.
func staleAsNotSatisfied(err error) error {
	if errors.Is(err, ErrStaleElement) {
		return fmt.Errorf("%w: %v", wait.ErrNotSatisfied, err)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
