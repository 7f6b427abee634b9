// File: internal/suite/discovery.go
package suite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

var tType = reflect.TypeOf((*T)(nil))

// hooks are per-attempt lifecycle methods run by the retrier, never as tests.
var hooks = map[string]bool{
	"SetupTest":    true,
	"TearDownTest": true,
}

// isTestSignature reports whether m is func(*T) with no results.
func isTestSignature(m reflect.Method) bool {
	ft := m.Type // includes the receiver
	return ft.NumIn() == 2 && ft.In(1) == tType && ft.NumOut() == 0
}

// Discover lists the runnable methods of def's suite value, in method name
// order. Every func(*T) method except the SetupTest and TearDownTest hooks is
// described; Test* methods carry MarkerTest, and a MarkerProvider adds more.
func Discover(def Definition) ([]schemas.TestDescriptor, error) {
	if def.New == nil {
		return nil, fmt.Errorf("suite %q has no constructor", def.Name)
	}
	instance := def.New()
	if instance == nil {
		return nil, fmt.Errorf("suite %q constructor returned nil", def.Name)
	}
	suiteName := def.name(instance)

	var extra map[string]schemas.Marker
	if mp, ok := instance.(MarkerProvider); ok {
		extra = mp.Markers()
	}

	typ := reflect.TypeOf(instance)
	var out []schemas.TestDescriptor
	seen := make(map[string]bool)
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if !isTestSignature(m) || hooks[m.Name] {
			continue
		}
		seen[m.Name] = true

		var markers schemas.Marker
		if strings.HasPrefix(m.Name, "Test") {
			markers |= schemas.MarkerTest
		}
		markers |= extra[m.Name]

		out = append(out, schemas.TestDescriptor{
			Suite:   suiteName,
			Method:  m.Name,
			Markers: markers,
			Index:   len(out),
		})
	}

	for name := range extra {
		if !seen[name] {
			return nil, fmt.Errorf("suite %s marks %q, which is not a func(*suite.T) method", suiteName, name)
		}
	}
	return out, nil
}

// IsValid reports whether d should be scheduled: it is a test and is neither
// skipped nor quarantined.
func IsValid(d schemas.TestDescriptor) bool {
	return d.Markers.Has(schemas.MarkerTest) &&
		!d.Markers.Has(schemas.MarkerSkip) &&
		!d.Markers.Has(schemas.MarkerQuarantine)
}

// Valid returns the valid descriptors of ds, preserving order.
func Valid(ds []schemas.TestDescriptor) []schemas.TestDescriptor {
	out := make([]schemas.TestDescriptor, 0, len(ds))
	for _, d := range ds {
		if IsValid(d) {
			out = append(out, d)
		}
	}
	return out
}
