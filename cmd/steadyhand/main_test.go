// File: cmd/steadyhand/main_test.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/steadyhand/cmd"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 130, exitCode(fmt.Errorf("run interrupted: %w", context.Canceled)))
	assert.Equal(t, 1, exitCode(fmt.Errorf("%w: 1 of 3", cmd.ErrTestsFailed)))
	assert.Equal(t, 1, exitCode(errors.New("bad config")))
}

// mockPanicDeps swaps the injected process hooks and restores them afterwards.
func mockPanicDeps(t *testing.T, writeErr error) (written *string, exitCodeSeen *int) {
	t.Helper()
	origWrite, origExit := osWriteFile, osExit
	t.Cleanup(func() { osWriteFile, osExit = origWrite, origExit })

	written = new(string)
	exitCodeSeen = new(int)
	*exitCodeSeen = -1
	osWriteFile = func(name string, data []byte, perm os.FileMode) error {
		*written = string(data)
		return writeErr
	}
	osExit = func(code int) { *exitCodeSeen = code }
	return written, exitCodeSeen
}

func TestHandlePanic_WritesPanicLog(t *testing.T) {
	written, code := mockPanicDeps(t, nil)

	func() {
		defer handlePanic()
		panic("worker exploded")
	}()

	assert.Equal(t, 2, *code)
	assert.True(t, strings.HasPrefix(*written, "panic: worker exploded"))
	assert.Contains(t, *written, "goroutine")
}

func TestHandlePanic_WriteFailure(t *testing.T) {
	_, code := mockPanicDeps(t, errors.New("read-only filesystem"))

	func() {
		defer handlePanic()
		panic("boom")
	}()
	assert.Equal(t, 2, *code)
}

func TestHandlePanic_NoPanic(t *testing.T) {
	_, code := mockPanicDeps(t, nil)

	func() {
		defer handlePanic()
	}()
	assert.Equal(t, -1, *code, "exit must not be called without a panic")
}

func TestMain_UsesExecute(t *testing.T) {
	origExecute := execute
	t.Cleanup(func() { execute = origExecute })
	_, code := mockPanicDeps(t, nil)

	called := false
	execute = func(ctx context.Context) error {
		called = true
		require.NotNil(t, ctx)
		return cmd.ErrTestsFailed
	}
	main()

	assert.True(t, called)
	assert.Equal(t, 1, *code)
}
