package crud

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/agnivade/levenshtein"
)

var errWrongType = errors.New("wrong value type")

// Field is a typed accessor pair for one named field. Getters return plain Go
// scalars (string, bool, numbers, time.Time) or nil so the query pipeline can
// compare values without knowing the row type. A nil Set marks the field
// read-only.
type Field[T any] struct {
	Get func(T) any
	Set func(*T, any) error
}

// Text exposes a string-kinded field. Named string types are reported as plain
// strings so equality filters match untyped filter values.
func Text[T any, S ~string](get func(T) S, set func(*T, S)) Field[T] {
	return Field[T]{
		Get: func(row T) any { return string(get(row)) },
		Set: func(row *T, v any) error {
			switch x := v.(type) {
			case string:
				set(row, S(x))
			case S:
				set(row, x)
			default:
				return errWrongType
			}
			return nil
		},
	}
}

// OptionalText exposes a nullable string field; nil reads as nil.
func OptionalText[T any](get func(T) *string, set func(*T, *string)) Field[T] {
	return Field[T]{
		Get: func(row T) any {
			if p := get(row); p != nil {
				return *p
			}
			return nil
		},
		Set: func(row *T, v any) error {
			switch x := v.(type) {
			case nil:
				set(row, nil)
			case string:
				set(row, &x)
			case *string:
				set(row, x)
			default:
				return errWrongType
			}
			return nil
		},
	}
}

// Enum exposes a string-kinded field restricted to allowed values.
func Enum[T any, S ~string](get func(T) S, set func(*T, S), allowed ...S) Field[T] {
	f := Text(get, set)
	inner := f.Set
	f.Set = func(row *T, v any) error {
		var s S
		switch x := v.(type) {
		case string:
			s = S(x)
		case S:
			s = x
		default:
			return errWrongType
		}
		if !slices.Contains(allowed, s) {
			return fmt.Errorf("%q is not one of %v", s, allowed)
		}
		return inner(row, s)
	}
	return f
}

// Flag exposes a bool field.
func Flag[T any](get func(T) bool, set func(*T, bool)) Field[T] {
	return Field[T]{
		Get: func(row T) any { return get(row) },
		Set: func(row *T, v any) error {
			b, ok := v.(bool)
			if !ok {
				return errWrongType
			}
			set(row, b)
			return nil
		},
	}
}

// Timestamp exposes a time field.
func Timestamp[T any](get func(T) time.Time, set func(*T, time.Time)) Field[T] {
	return Field[T]{
		Get: func(row T) any { return get(row) },
		Set: func(row *T, v any) error {
			ts, ok := v.(time.Time)
			if !ok {
				return errWrongType
			}
			set(row, ts)
			return nil
		},
	}
}

// OptionalTimestamp exposes a nullable time field; nil reads as nil.
func OptionalTimestamp[T any](get func(T) *time.Time, set func(*T, *time.Time)) Field[T] {
	return Field[T]{
		Get: func(row T) any {
			if p := get(row); p != nil {
				return *p
			}
			return nil
		},
		Set: func(row *T, v any) error {
			switch x := v.(type) {
			case nil:
				set(row, nil)
			case time.Time:
				set(row, &x)
			case *time.Time:
				set(row, x)
			default:
				return errWrongType
			}
			return nil
		},
	}
}

// ReadOnly exposes a computed or immutable field.
func ReadOnly[T any](get func(T) any) Field[T] {
	return Field[T]{Get: get}
}

// Entity describes a row type to the generic services: how to read and assign
// its id, which fields exist, and which of them text search covers. Clone deep
// copies a row; it is required when T holds pointers, maps or slices.
type Entity[T any, K comparable] struct {
	Name       string
	IDField    string
	ID         func(T) K
	SetID      func(*T, K)
	NewID      func() K
	Clone      func(T) T
	Fields     map[string]Field[T]
	SearchKeys []string
}

// Copy returns a row that shares no memory with row.
func (e Entity[T, K]) Copy(row T) T {
	if e.Clone == nil {
		return row
	}
	return e.Clone(row)
}

func (e Entity[T, K]) copyAll(rows []T) []T {
	out := make([]T, len(rows))
	for i, row := range rows {
		out[i] = e.Copy(row)
	}
	return out
}

// Lookup reads a field by name. It satisfies query.Getter.
func (e Entity[T, K]) Lookup(row T, field string) (any, bool) {
	f, ok := e.Fields[field]
	if !ok || f.Get == nil {
		return nil, false
	}
	return f.Get(row), true
}

// FieldNames returns the known field names in lexical order.
func (e Entity[T, K]) FieldNames() []string {
	return slices.Sorted(maps.Keys(e.Fields))
}

// CheckField reports whether name is a known field.
func (e Entity[T, K]) CheckField(name string) error {
	if _, ok := e.Fields[name]; ok {
		return nil
	}
	return &FieldError{Entity: e.Name, Field: name, Reason: "unknown field", Suggestion: e.Suggest(name)}
}

// Suggest returns the closest known field name, or "" when nothing is near.
func (e Entity[T, K]) Suggest(name string) string {
	best, bestDist := "", -1
	for _, candidate := range e.FieldNames() {
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(name)/3) {
		return ""
	}
	return best
}

// Apply merges patch onto row field by field. The id field is never patched.
// Keys are applied in lexical order; on error row may be partially updated, so
// callers apply onto a copy.
func (e Entity[T, K]) Apply(row *T, patch Patch) error {
	for _, name := range slices.Sorted(maps.Keys(patch)) {
		if name == e.IDField {
			return &FieldError{Entity: e.Name, Field: name, Reason: "id cannot be patched"}
		}
		f, ok := e.Fields[name]
		if !ok {
			return &FieldError{Entity: e.Name, Field: name, Reason: "unknown field", Suggestion: e.Suggest(name)}
		}
		if f.Set == nil {
			return &FieldError{Entity: e.Name, Field: name, Reason: "read-only field"}
		}
		if err := f.Set(row, patch[name]); err != nil {
			reason := err.Error()
			if errors.Is(err, errWrongType) {
				reason = fmt.Sprintf("%v %T", err, patch[name])
			}
			return &FieldError{Entity: e.Name, Field: name, Reason: reason}
		}
	}
	return nil
}
