package render

import (
	"sort"
	"strings"
)

// Registry holds decorators keyed by tag name, preserving registration order
// within each tag. A Registry is built for a single render and is not safe
// for concurrent use; several decorators keep per-render state.
type Registry struct {
	decorators map[string][]Decorator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{decorators: make(map[string][]Decorator)}
}

// Add appends a decorator for tag. Nil decorators and empty tags are ignored.
func (r *Registry) Add(tag string, decorator Decorator) {
	tag = normalizeTag(tag)
	if tag == "" || decorator == nil {
		return
	}
	r.decorators[tag] = append(r.decorators[tag], decorator)
}

// For returns the decorators registered for tag in registration order.
func (r *Registry) For(tag string) []Decorator {
	return r.decorators[normalizeTag(tag)]
}

// Tags returns the sorted list of tags with at least one decorator.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.decorators))
	for tag := range r.decorators {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len reports the total number of registered decorators.
func (r *Registry) Len() int {
	total := 0
	for _, list := range r.decorators {
		total += len(list)
	}
	return total
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
