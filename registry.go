package hxtag

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps tag names to components and owns the route table their
// api blocks feed. It is safe for concurrent use: lookups share a read
// lock, so registration may continue while requests are served.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	routes  *RouteTable
	opts    options
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := newOptions(opts)
	return &Registry{
		entries: make(map[string]*Entry),
		routes:  NewRouteTable(),
		opts:    o,
	}
}

// Register validates c and stores it under its tag. Registering a tag
// again replaces the previous entry and logs a warning; routes with the
// same method and pattern are replaced in place. On error nothing is
// registered.
func (reg *Registry) Register(c Component) (*Entry, error) {
	entry, err := c.compile()
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	_, replaced := reg.entries[entry.tag]
	reg.entries[entry.tag] = entry
	n := len(reg.entries)
	reg.routes.put(entry.routes...)
	reg.mu.Unlock()

	if replaced {
		reg.opts.logger.Warn("hxtag: component re-registered, previous definition replaced",
			slog.String("tag", entry.tag),
			slog.Int("routes", len(entry.routes)))
	}
	reg.opts.metrics.SetComponents(n)
	return entry, nil
}

// MustRegister registers components and panics on the first error.
// Use it for definitions fixed at compile time.
func (reg *Registry) MustRegister(components ...Component) {
	for _, c := range components {
		if _, err := reg.Register(c); err != nil {
			panic(fmt.Sprintf("hxtag: %v", err))
		}
	}
}

// Lookup returns the entry for tag. Tag names are case-insensitive.
// An unknown tag is not an error: the resolver leaves it as HTML.
func (reg *Registry) Lookup(tag string) (*Entry, bool) {
	tag = NormalizeTag(tag)
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	e, ok := reg.entries[tag]
	return e, ok
}

// Tags returns the registered tag names, sorted.
func (reg *Registry) Tags() []string {
	reg.mu.RLock()
	tags := make([]string, 0, len(reg.entries))
	for tag := range reg.entries {
		tags = append(tags, tag)
	}
	reg.mu.RUnlock()
	sort.Strings(tags)
	return tags
}

// Len returns the number of registered components.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.entries)
}

// Routes returns the route table fed by registered components. Routes
// added to it directly have no owning component.
func (reg *Registry) Routes() *RouteTable {
	return reg.routes
}
