package logbench

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBackend is returned by Registry.Select for names that were never
// registered.
var ErrUnknownBackend = errors.New("unknown backend")

// Registry keeps backends in registration order.
type Registry struct {
	order  []Backend
	byName map[string]int
}

// NewRegistry registers backends in order and panics on an invalid or
// duplicate entry, since registries are assembled from static tables.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{byName: make(map[string]int, len(backends))}
	for _, b := range backends {
		if err := r.Register(b); err != nil {
			panic(err)
		}
	}
	return r
}

// Register appends b.
func (r *Registry) Register(b Backend) error {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return errors.New("backend name is empty")
	}
	if b.New == nil {
		return fmt.Errorf("backend %q has no constructor", name)
	}
	if r.byName == nil {
		r.byName = make(map[string]int)
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("backend %q already registered", name)
	}
	b.Name = name
	r.byName[name] = len(r.order)
	r.order = append(r.order, b)
	return nil
}

// Lookup returns the backend registered as name.
func (r *Registry) Lookup(name string) (Backend, bool) {
	idx, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Backend{}, false
	}
	return r.order[idx], true
}

// Names returns every registered name in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, b := range r.order {
		names[i] = b.Name
	}
	return names
}

// All returns every backend in registration order.
func (r *Registry) All() []Backend {
	out := make([]Backend, len(r.order))
	copy(out, r.order)
	return out
}

// Select resolves names in the order given. An empty selection returns every
// backend. Unknown names are reported together.
func (r *Registry) Select(names ...string) ([]Backend, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	out := make([]Backend, 0, len(names))
	var unknown []string
	for _, name := range names {
		b, ok := r.Lookup(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, b)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, strings.Join(unknown, ", "))
	}
	return out, nil
}
