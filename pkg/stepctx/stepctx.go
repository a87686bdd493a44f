// Package stepctx holds the per-scenario store of named fixtures and the
// values handlers return to replace them.
package stepctx

import (
	"reflect"
)

// Context is created for one scenario and discarded when it ends. It is not
// safe for concurrent use.
type Context struct {
	names     []string
	fixtures  map[string]any
	overrides map[string]any
}

// New returns an empty store.
func New() *Context {
	return &Context{
		fixtures:  make(map[string]any),
		overrides: make(map[string]any),
	}
}

// Insert adds or replaces a named fixture and drops any override recorded
// under that name. Fixtures are normally inserted before the first step.
func (c *Context) Insert(name string, value any) {
	if _, ok := c.fixtures[name]; !ok {
		c.names = append(c.names, name)
	}
	c.fixtures[name] = value
	delete(c.overrides, name)
}

// Override records value in place of the one fixture whose runtime type is
// exactly value's. It reports whether the value was kept; a value matching
// no fixture, more than one fixture, or a nil value is discarded.
func (c *Context) Override(value any) bool {
	if value == nil {
		return false
	}
	typ := reflect.TypeOf(value)

	target := ""
	matches := 0
	for _, name := range c.names {
		if reflect.TypeOf(c.fixtures[name]) == typ {
			target = name
			matches++
		}
	}
	if matches != 1 {
		return false
	}
	c.overrides[target] = value
	return true
}

// Lookup returns the current value for name: the override if one exists,
// otherwise the fixture.
func (c *Context) Lookup(name string) (any, bool) {
	if v, ok := c.overrides[name]; ok {
		return v, true
	}
	v, ok := c.fixtures[name]
	return v, ok
}

// Overridden reports whether a handler has replaced the fixture called name.
func (c *Context) Overridden(name string) bool {
	_, ok := c.overrides[name]
	return ok
}

// Names returns fixture names in insertion order.
func (c *Context) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Get returns the current value for name as a T. A missing name or a value
// of another type yields false.
func Get[T any](c *Context, name string) (T, bool) {
	var zero T
	v, ok := c.Lookup(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
