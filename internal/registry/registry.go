// Package registry keeps the handlers produced by a settings load. Handlers are
// keyed by their type identifier and parameters, stored in insertion order and
// never overwritten.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"

	"github.com/eugenenazirov/envsettings/internal/handler"
)

// ErrDuplicateHandler indicates a handler with the same type and parameters is
// already registered.
var ErrDuplicateHandler = errors.New("duplicate handler")

// fieldSeparator keeps ("ab", "c") and ("a", "bc") from hashing alike.
const fieldSeparator = 0x1f

// Key identifies a handler by type identifier and parameters.
type Key [sha256.Size]byte

// String returns the hex encoding of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor derives the registry key for the given type and parameters.
func KeyFor(typ, p1, p2, p3 string) Key {
	h := sha256.New()
	for i, field := range [...]string{typ, p1, p2, p3} {
		if i > 0 {
			h.Write([]byte{fieldSeparator})
		}
		h.Write([]byte(field))
	}
	var k Key
	h.Sum(k[:0])
	return k
}

func keyOf(h handler.Handler) Key {
	p1, p2, p3 := h.Params()
	return KeyFor(h.Type(), p1, p2, p3)
}

// Registry is an insertion-ordered, deduplicating handler collection. It is
// not safe for concurrent use.
type Registry struct {
	order []handler.Handler
	index map[Key]int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{index: make(map[Key]int)}
}

// Register stores h. It fails with ErrDuplicateHandler when a handler with the
// same type and parameters is already present.
func (r *Registry) Register(h handler.Handler) error {
	if h == nil {
		return errors.New("cannot register nil handler")
	}
	key := keyOf(h)
	if _, exists := r.index[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.Label())
	}
	r.index[key] = len(r.order)
	r.order = append(r.order, h)
	return nil
}

// Lookup returns the handler registered for the given type and parameters.
func (r *Registry) Lookup(typ, p1, p2, p3 string) (handler.Handler, bool) {
	i, ok := r.index[KeyFor(typ, p1, p2, p3)]
	if !ok {
		return nil, false
	}
	return r.order[i], true
}

// All iterates the handlers in registration order. Each call starts a new
// traversal from the first handler.
func (r *Registry) All() iter.Seq[handler.Handler] {
	return func(yield func(handler.Handler) bool) {
		for _, h := range r.order {
			if !yield(h) {
				return
			}
		}
	}
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.order)
}
