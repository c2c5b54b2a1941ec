// Package handlers contains the built-in handler implementations.
package handlers

import (
	"errors"

	"github.com/eugenenazirov/envsettings/internal/handler"
)

// Type identifiers of the built-in handlers as they appear in settings tables.
const (
	TypeEnvVar        = "EnvVar"
	TypeFile          = "File"
	TypeMarkerReplace = "MarkerReplace"
	TypeYAMLValue     = "YAMLValue"
)

var (
	// ErrMissingParameter is returned when a required parameter is blank.
	ErrMissingParameter = errors.New("required parameter is empty")
	// ErrMarkerNotFound is returned when a marker does not occur in its target file.
	ErrMarkerNotFound = errors.New("marker not found")
)

var (
	_ handler.Handler = (*EnvVar)(nil)
	_ handler.Handler = (*File)(nil)
	_ handler.Handler = (*MarkerReplace)(nil)
	_ handler.Handler = (*YAMLValue)(nil)
)

// Register adds every built-in handler to c.
func Register(c *handler.Catalog) {
	c.MustRegister(TypeEnvVar, func() handler.Handler { return &EnvVar{} })
	c.MustRegister(TypeFile, func() handler.Handler { return &File{} })
	c.MustRegister(TypeMarkerReplace, func() handler.Handler { return &MarkerReplace{} })
	c.MustRegister(TypeYAMLValue, func() handler.Handler { return &YAMLValue{} })
}
