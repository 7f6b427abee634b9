// File: internal/suite/suite.go

// Package suite discovers test methods on suite values, filters them by marker,
// and runs them on a fixed worker pool with a global retry budget.
package suite

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// Definition describes a suite. New must return a fresh pointer to the suite
// value on every call; each attempt of each test gets its own instance.
type Definition struct {
	Name        string
	Description string
	New         func() any
}

// name returns Name, or the short type name of the suite value.
func (d Definition) name(instance any) string {
	if d.Name != "" {
		return d.Name
	}
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// MarkerProvider lets a suite attach markers to its methods by name, on top of
// the MarkerTest every Test* method gets.
type MarkerProvider interface {
	Markers() map[string]schemas.Marker
}

// SetupTestSuite runs before every attempt of every test.
type SetupTestSuite interface {
	SetupTest(t *T)
}

// TearDownTestSuite runs after every attempt of every test, including failed ones.
type TearDownTestSuite interface {
	TearDownTest(t *T)
}

// Registry maps suite names to definitions. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds def. Names must be non-empty and unique.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("suite definition has no name")
	}
	if def.New == nil {
		return fmt.Errorf("suite %q has no constructor", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("suite %q is already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is Register for package initialization.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
