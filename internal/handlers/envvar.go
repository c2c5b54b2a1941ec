package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/eugenenazirov/envsettings/internal/handler"
)

// EnvVar sets the process environment variable named by param1.
type EnvVar struct {
	handler.Base
}

func (h *EnvVar) Apply(ctx context.Context) error {
	_ = ctx
	name, _, _ := h.Params()
	if name == "" {
		return fmt.Errorf("%s: variable name: %w", h.Label(), ErrMissingParameter)
	}
	if err := os.Setenv(name, h.Value()); err != nil {
		return fmt.Errorf("%s: set variable: %w", h.Label(), err)
	}
	return nil
}
