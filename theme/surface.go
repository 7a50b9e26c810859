package theme

import (
	"sort"
	"sync"
)

// Surface receives the presentation flag. Implementations must not call back
// into the controller.
type Surface interface {
	SetClass(name string, on bool)
}

// NopSurface discards flag changes.
type NopSurface struct{}

func (NopSurface) SetClass(string, bool) {}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(name string, on bool)

func (f SurfaceFunc) SetClass(name string, on bool) { f(name, on) }

// Surfaces fans a flag change out to each surface in order.
type Surfaces []Surface

func (s Surfaces) SetClass(name string, on bool) {
	for _, surface := range s {
		if surface != nil {
			surface.SetClass(name, on)
		}
	}
}

// ClassList mirrors the class attribute of a document root element.
type ClassList struct {
	mu      sync.RWMutex
	classes map[string]struct{}
}

// NewClassList returns an empty class list.
func NewClassList() *ClassList {
	return &ClassList{classes: make(map[string]struct{})}
}

func (c *ClassList) SetClass(name string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.classes[name] = struct{}{}
	} else {
		delete(c.classes, name)
	}
}

// Has reports whether name is present.
func (c *ClassList) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.classes[name]
	return ok
}

// Names returns the present classes, sorted.
func (c *ClassList) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.classes))
	for name := range c.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
