package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eugenenazirov/envsettings/internal/handler"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// File writes the value to the file at param1, replacing its content.
type File struct {
	handler.Base
}

func (h *File) Apply(ctx context.Context) error {
	_ = ctx
	path, _, _ := h.Params()
	if path == "" {
		return fmt.Errorf("%s: path: %w", h.Label(), ErrMissingParameter)
	}
	if err := writeFile(path, []byte(h.Value())); err != nil {
		return fmt.Errorf("%s: %w", h.Label(), err)
	}
	return nil
}

// MarkerReplace replaces every occurrence of the marker in param2 within the
// file at param1 with the value.
type MarkerReplace struct {
	handler.Base
}

func (h *MarkerReplace) Apply(ctx context.Context) error {
	_ = ctx
	path, marker, _ := h.Params()
	if path == "" {
		return fmt.Errorf("%s: path: %w", h.Label(), ErrMissingParameter)
	}
	if marker == "" {
		return fmt.Errorf("%s: marker: %w", h.Label(), ErrMissingParameter)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: read file: %w", h.Label(), err)
	}
	content := string(data)
	if !strings.Contains(content, marker) {
		return fmt.Errorf("%s: %w", h.Label(), ErrMarkerNotFound)
	}
	if err := writeFile(path, []byte(strings.ReplaceAll(content, marker, h.Value()))); err != nil {
		return fmt.Errorf("%s: %w", h.Label(), err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
