// decode.go — turning normal forms into Go values.
//
// Two consumers: programs embedding the engine use the typed Decoder
// combinators (compose exactly the shape you expect, get a typed error when
// the configuration disagrees), and the CLI uses ToInterface to lower a
// normal form into plain Go data for JSON/YAML emission.
//
// Decoders operate on normal forms only. Feeding a non-normal expression is
// not detected; callers go through Normalize (or Engine.Run) first.
package tern

import (
	"github.com/pkg/errors"
)

// A Decoder extracts a Go value of type T from a normal form.
type Decoder[T any] func(*Expr) (T, error)

func decodeErr(want string, e *Expr) error {
	return errors.Errorf("cannot decode %s as %s", Render(e), want)
}

// DecodeBool extracts a Bool literal.
func DecodeBool(e *Expr) (bool, error) {
	if e.Tag == TBoolLit {
		return e.Data.(bool), nil
	}
	return false, decodeErr("Bool", e)
}

// DecodeNatural extracts a Natural literal.
func DecodeNatural(e *Expr) (uint64, error) {
	if e.Tag == TNaturalLit {
		return e.Data.(uint64), nil
	}
	return 0, decodeErr("Natural", e)
}

// DecodeInteger extracts an Integer literal.
func DecodeInteger(e *Expr) (int64, error) {
	if e.Tag == TIntegerLit {
		return e.Data.(int64), nil
	}
	return 0, decodeErr("Integer", e)
}

// DecodeDouble extracts a Double literal.
func DecodeDouble(e *Expr) (float64, error) {
	if e.Tag == TDoubleLit {
		return e.Data.(float64), nil
	}
	return 0, decodeErr("Double", e)
}

// DecodeText extracts a Text literal.
func DecodeText(e *Expr) (string, error) {
	if e.Tag == TTextLit {
		return e.Data.(string), nil
	}
	return "", decodeErr("Text", e)
}

// ListOf decodes a list literal element-wise.
func ListOf[T any](elem Decoder[T]) Decoder[[]T] {
	return func(e *Expr) ([]T, error) {
		if e.Tag != TList {
			return nil, decodeErr("List", e)
		}
		l := e.Data.(*List)
		out := make([]T, 0, len(l.Elems))
		for i, el := range l.Elems {
			v, err := elem(el)
			if err != nil {
				return nil, errors.Wrapf(err, "list element %d", i)
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// OptionalOf decodes Some/None into a nil-able pointer.
func OptionalOf[T any](elem Decoder[T]) Decoder[*T] {
	return func(e *Expr) (*T, error) {
		switch e.Tag {
		case TNone:
			return nil, nil
		case TSome:
			v, err := elem(e.Data.(*Some).Value)
			if err != nil {
				return nil, err
			}
			return &v, nil
		}
		return nil, decodeErr("Optional", e)
	}
}

// Field decodes one named field of a record literal.
func Field[T any](name string, elem Decoder[T]) Decoder[T] {
	return func(e *Expr) (T, error) {
		var zero T
		if e.Tag != TRecordLit {
			return zero, decodeErr("record", e)
		}
		f := e.Data.(*Record).Lookup(name)
		if f == nil {
			return zero, errors.Errorf("record has no field %q", name)
		}
		v, err := elem(f)
		if err != nil {
			return zero, errors.Wrapf(err, "field %q", name)
		}
		return v, nil
	}
}

// ToInterface lowers a normal form into plain Go data (bool, uint64, int64,
// float64, string, []any, map[string]any, nil for None) suitable for JSON or
// YAML encoding. Functions, types, and other non-data forms are rejected.
func ToInterface(e *Expr) (any, error) {
	switch e.Tag {
	case TBoolLit, TNaturalLit, TIntegerLit, TDoubleLit, TTextLit:
		return e.Data, nil
	case TList:
		l := e.Data.(*List)
		out := make([]any, 0, len(l.Elems))
		for i, el := range l.Elems {
			v, err := ToInterface(el)
			if err != nil {
				return nil, errors.Wrapf(err, "list element %d", i)
			}
			out = append(out, v)
		}
		return out, nil
	case TSome:
		return ToInterface(e.Data.(*Some).Value)
	case TNone:
		return nil, nil
	case TRecordLit:
		r := e.Data.(*Record)
		out := make(map[string]any, len(r.Fields))
		for _, f := range r.Fields {
			v, err := ToInterface(f.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q", f.Name)
			}
			out[f.Name] = v
		}
		return out, nil
	case TUnionLit:
		u := e.Data.(*UnionLit)
		v, err := ToInterface(u.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "alternative %q", u.Tag)
		}
		return map[string]any{u.Tag: v}, nil
	}
	return nil, errors.Errorf("%s is not a data value", Render(e))
}
