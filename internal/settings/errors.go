package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eugenenazirov/envsettings/internal/handler"
	"github.com/eugenenazirov/envsettings/internal/registry"
)

var (
	// ErrSourceUnavailable is returned when the table cannot be opened or its header read.
	ErrSourceUnavailable = errors.New("settings source unavailable")
	// ErrEnvironmentNotFound is returned when the requested environment has no usable column.
	ErrEnvironmentNotFound = errors.New("environment not found")
	// ErrUnknownHandlerType is returned when a row names a type missing from the catalog.
	ErrUnknownHandlerType = handler.ErrUnknownType
	// ErrDuplicateHandler is returned when two combinations produce the same handler key.
	ErrDuplicateHandler = registry.ErrDuplicateHandler
	// ErrMissingEnvironmentVariable is returned when a ###ENV:NAME### placeholder names an unset variable.
	ErrMissingEnvironmentVariable = errors.New("missing environment variable")
)

// ConfigError describes why a load failed and where in the table.
type ConfigError struct {
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Row is the 1-based record number in the table, header included. Zero when
	// the failure is not tied to a row.
	Row int
	// Handler is the handler type of the offending row, if known.
	Handler string
	Detail  string
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Row > 0 {
		fmt.Fprintf(&b, "settings row %d: ", e.Row)
	}
	b.WriteString(e.Kind.Error())
	if e.Handler != "" {
		fmt.Fprintf(&b, " [%s]", e.Handler)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil && !errors.Is(e.Kind, e.Err) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
