package handler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownType is returned when a type identifier has no registered factory
	// or its factory does not produce a handler.
	ErrUnknownType = errors.New("unknown handler type")
	// ErrAlreadyRegistered is returned when a type identifier is registered twice.
	ErrAlreadyRegistered = errors.New("handler type already registered")
)

// Factory builds a fresh, unconfigured handler.
type Factory func() Handler

// Catalog maps type identifiers to factories. It is populated at startup and
// read during loading.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (c *Catalog) Register(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("handler type name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("handler type %q: nil factory", name)
	}
	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	c.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(name string, factory Factory) {
	if err := c.Register(name, factory); err != nil {
		panic(err)
	}
}

// New instantiates the handler registered under name and records the type
// identifier on it.
func (c *Catalog) New(name string) (Handler, error) {
	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	h := factory()
	if h == nil {
		return nil, fmt.Errorf("%w: factory for %q returned no handler", ErrUnknownType, name)
	}
	h.SetType(name)
	return h, nil
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	_, ok := c.factories[name]
	return ok
}

// Names returns the registered type identifiers in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
