package handler

import (
	"context"
	"fmt"
)

// Handler applies one configuration value somewhere. The loader records the
// type identifier, the three parameters and the resolved value before the
// handler is registered.
type Handler interface {
	SetType(typ string)
	SetParams(p1, p2, p3 string)
	SetValue(value string)

	Type() string
	Params() (p1, p2, p3 string)
	Value() string
	// Label is a human readable description used in logs and error messages.
	Label() string

	Apply(ctx context.Context) error
}

// Base carries the state shared by all handlers. Concrete handlers embed it
// and only provide Apply.
type Base struct {
	typ    string
	params [3]string
	value  string
}

func (b *Base) SetType(typ string) { b.typ = typ }

func (b *Base) SetParams(p1, p2, p3 string) {
	b.params = [3]string{p1, p2, p3}
}

func (b *Base) SetValue(value string) { b.value = value }

func (b *Base) Type() string { return b.typ }

func (b *Base) Params() (string, string, string) {
	return b.params[0], b.params[1], b.params[2]
}

func (b *Base) Value() string { return b.value }

// Label renders the handler as Type(p1, p2, p3).
func (b *Base) Label() string {
	return fmt.Sprintf("%s(%s, %s, %s)", b.typ, b.params[0], b.params[1], b.params[2])
}
