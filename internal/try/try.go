// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package try converts panics and close failures into ordinary errors.
package try

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
)

// PanicError is returned in place of a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the [error] interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// Unwrap returns the panic value if it was itself an error.
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover must be deferred directly. It joins any recovered
// panic onto the error ref as a [PanicError].
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}

	perr := PanicError{
		Value: r,
		Stack: debug.Stack(),
	}
	if *err == nil {
		*err = perr
		return
	}
	*err = errors.Join(*err, perr)
}

// Call runs f and reports a panic inside it as a [PanicError].
func Call(f func() error) (err error) {
	defer Recover(&err)

	return f()
}

// CloseError
type CloseError struct {
	Cause error
}

// Error implements the [error] interface.
func (e CloseError) Error() string {
	return fmt.Sprintf("failed to close: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e CloseError) Unwrap() error {
	return e.Cause
}

// Close closes v if it is an [io.Closer] and joins the failure onto the error ref.
func Close(err *error, v any) {
	c, ok := v.(io.Closer)
	if !ok {
		return
	}

	cerr := c.Close()
	if cerr == nil {
		return
	}

	*err = errors.Join(*err, CloseError{Cause: cerr})
}
