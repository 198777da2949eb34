// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package ptr provides helpers for working with references of values.
package ptr

import "reflect"

// Deref returns either the zero value for type T or the
// dereferenced value of t.
func Deref[T any](t *T) T {
	var zero T
	if t == nil {
		return zero
	}
	return *t
}

// Ref returns a reference of the given value.
func Ref[T any](t T) *T {
	return &t
}

// IsNil reports whether v is nil or a nil value of a nillable kind,
// e.g. a typed nil pointer stored in an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
