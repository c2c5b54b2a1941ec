package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envsettings/internal/handler"
)

// YAMLValue sets the scalar at the dotted key path param2 inside the YAML file
// at param1. Missing mappings and a missing file are created.
type YAMLValue struct {
	handler.Base
}

func (h *YAMLValue) Apply(ctx context.Context) error {
	_ = ctx
	path, keyPath, _ := h.Params()
	if path == "" {
		return fmt.Errorf("%s: path: %w", h.Label(), ErrMissingParameter)
	}
	keys := splitKeyPath(keyPath)
	if len(keys) == 0 {
		return fmt.Errorf("%s: key path: %w", h.Label(), ErrMissingParameter)
	}

	doc, err := readYAMLDocument(path)
	if err != nil {
		return fmt.Errorf("%s: %w", h.Label(), err)
	}
	if err := setYAMLValue(doc, keys, h.Value()); err != nil {
		return fmt.Errorf("%s: %w", h.Label(), err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%s: encode YAML: %w", h.Label(), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%s: encode YAML: %w", h.Label(), err)
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("%s: %w", h.Label(), err)
	}
	return nil
}

func splitKeyPath(keyPath string) []string {
	var keys []string
	for _, k := range strings.Split(keyPath, ".") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func readYAMLDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode}
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	return &doc, nil
}

func setYAMLValue(doc *yaml.Node, keys []string, value string) error {
	node := doc.Content[0]
	for i, key := range keys {
		if node.Kind != yaml.MappingNode {
			if i == 0 {
				return errors.New("document root is not a mapping")
			}
			return fmt.Errorf("key %q is not a mapping", strings.Join(keys[:i], "."))
		}
		last := i == len(keys)-1

		var child *yaml.Node
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value == key {
				child = node.Content[j+1]
				break
			}
		}

		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			if last {
				child = &yaml.Node{}
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				child,
			)
		}

		if last {
			*child = yaml.Node{
				Kind:        yaml.ScalarNode,
				Tag:         "!!str",
				Value:       value,
				HeadComment: child.HeadComment,
				LineComment: child.LineComment,
				FootComment: child.FootComment,
			}
			return nil
		}
		node = child
	}
	return nil
}
