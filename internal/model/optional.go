package model

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that may be absent. The zero value is absent.
//
// A JSON null and a missing key both decode to absent, so callers can tell
// "not reported" apart from a reported false, zero or empty string.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nil-able pointer into an Optional
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsPresent reports whether a value is present
func (o Optional[T]) IsPresent() bool {
	return o.ok
}

// IsZero reports absence, so `omitzero` struct tags drop absent values
func (o Optional[T]) IsZero() bool {
	return !o.ok
}

// OrElse returns the value if present, otherwise fallback
func (o Optional[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// Ptr returns a pointer to a copy of the value, or nil when absent
func (o Optional[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.value
	return &v
}

// Map applies fn to a present value. Absent stays absent.
func Map[T, U any](o Optional[T], fn func(T) U) Optional[U] {
	if !o.ok {
		return None[U]()
	}
	return Some(fn(o.value))
}

var jsonNull = []byte("null")

// MarshalJSON encodes absent as null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return jsonNull, nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML encodes absent as null
func (o Optional[T]) MarshalYAML() (interface{}, error) {
	if !o.ok {
		return nil, nil
	}
	return o.value, nil
}
