// internal/browser/session/context_utils_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type ctxKey string

const connKey ctxKey = "cdp"

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("carries primary values", func(t *testing.T) {
		primary := context.WithValue(context.Background(), connKey, "tab-1")
		combined, cancel := CombineContext(primary, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", combined.Value(connKey))
		assert.NoError(t, combined.Err())
	})

	t.Run("canceled by either side", func(t *testing.T) {
		for _, side := range []string{"primary", "op"} {
			primary, cancelPrimary := context.WithCancel(context.Background())
			op, cancelOp := context.WithCancel(context.Background())
			combined, cancel := CombineContext(primary, op)

			if side == "primary" {
				cancelPrimary()
			} else {
				cancelOp()
			}
			assert.Eventually(t, func() bool { return combined.Err() != nil }, time.Second, 5*time.Millisecond, side)
			assert.ErrorIs(t, combined.Err(), context.Canceled)

			cancel()
			cancelPrimary()
			cancelOp()
		}
	})

	t.Run("deadline comes from primary", func(t *testing.T) {
		deadline := time.Now().Add(time.Minute)
		primary, cancelPrimary := context.WithDeadline(context.Background(), deadline)
		defer cancelPrimary()
		op, cancelOp := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancelOp()

		combined, cancel := CombineContext(primary, op)
		defer cancel()

		got, ok := combined.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, deadline, got, time.Millisecond)

		// An op timeout still ends the combined context, as a cancellation.
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), connKey, "tab-2"), 10*time.Millisecond)
	detached := Detach(parent)
	cancel()

	assert.Equal(t, "tab-2", detached.Value(connKey))
	assert.ErrorIs(t, parent.Err(), context.Canceled)
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)

	derived, cancelDerived := context.WithTimeout(detached, 20*time.Millisecond)
	defer cancelDerived()
	<-derived.Done()
	assert.ErrorIs(t, derived.Err(), context.DeadlineExceeded)
}
