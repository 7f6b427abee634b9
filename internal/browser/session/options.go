// internal/browser/session/options.go
package session

import (
	"strings"

	"github.com/chromedp/chromedp"
)

// Options selects and configures the browser a Session drives.
type Options struct {
	// RemoteURL, when set, attaches to an already running browser's DevTools
	// websocket instead of launching one.
	RemoteURL    string
	ExecPath     string
	Headless     bool
	DisableGPU   bool
	WindowWidth  int
	WindowHeight int
	// Args are extra command line switches, with or without leading dashes,
	// either bare ("no-zygote") or key=value ("lang=en-US").
	Args []string
}

// execAllocatorOptions builds the launch flags for a local browser.
func execAllocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		// Required on hardened hosts and in containers.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	// DefaultExecAllocatorOptions includes headless; turning it off means
	// overriding the flag rather than omitting it.
	opts = append(opts, chromedp.Flag("headless", o.Headless))
	if o.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.WindowWidth > 0 && o.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(o.WindowWidth, o.WindowHeight))
	}

	for _, arg := range o.Args {
		name, value, ok := parseFlag(arg)
		if !ok {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// parseFlag splits a command line switch into the name/value pair chromedp.Flag
// expects. chromedp adds the leading dashes itself.
func parseFlag(arg string) (string, any, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil, false
	}
	key, value, hasValue := strings.Cut(arg, "=")
	if key == "" {
		return "", nil, false
	}
	if !hasValue {
		return key, true, true
	}
	return key, value, true
}
