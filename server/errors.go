// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL is returned when the listen URL cannot be served.
	ErrMalformedURL = errors.New("malformed listen url")

	// ErrPortInUse is returned when another listener holds the port.
	ErrPortInUse = errors.New("port is already in use")

	// ErrPermissionDenied is returned when the process may not bind the address.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPrefixConflict is returned when another running server in this
	// process already reserved the address.
	ErrPrefixConflict = errors.New("url prefix is already reserved")

	// ErrPlatformUnsupported is returned on platforms without TCP listeners.
	ErrPlatformUnsupported = errors.New("platform does not support listening")

	// ErrListenFailed is returned for any other bind failure.
	ErrListenFailed = errors.New("failed to listen")

	// ErrAlreadyRunning is returned by Start on a running server.
	ErrAlreadyRunning = errors.New("server is already running")
)

// BindError describes why Start failed. Kind is one of the sentinel
// errors of this package and is matched by [errors.Is].
type BindError struct {
	URL   string
	Kind  error
	Cause error
}

// Error implements the [error] interface.
func (e BindError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("server: %s: %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("server: %s: %s: %s", e.Kind, e.URL, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BindError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
