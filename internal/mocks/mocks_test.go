// File: internal/mocks/mocks_test.go
package mocks_test

import (
	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/mocks"
	"github.com/xkilldash9x/steadyhand/internal/reporting"
)

var (
	_ config.Interface          = (*mocks.MockConfig)(nil)
	_ reporting.SessionReporter = (*mocks.MockSessionReporter)(nil)
	_ reporting.Notifier        = (*mocks.MockNotifier)(nil)
	_ reporting.Recorder        = (*mocks.MockRecorder)(nil)
)
