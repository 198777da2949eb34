// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package portcheck probes local TCP ports before a server binds them.
package portcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultFrom = 8000
	DefaultTo   = 9000
)

// DialTimeout bounds the connect probe.
var DialTimeout = 250 * time.Millisecond

// InvalidPortError is returned for ports outside 1..65535.
type InvalidPortError struct {
	Port int
}

// Error implements the [error] interface.
func (e InvalidPortError) Error() string {
	return fmt.Sprintf("port %d is not in the valid range 1-65535", e.Port)
}

// InUseError is returned when another listener already holds the port.
type InUseError struct {
	Port  int
	Cause error
}

// Error implements the [error] interface.
func (e InUseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("port %d is already in use", e.Port)
	}
	return fmt.Sprintf("port %d is already in use: %s", e.Port, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InUseError) Unwrap() error {
	return e.Cause
}

// ErrNoAvailablePort is returned by FindAvailable when every port in the range is taken.
var ErrNoAvailablePort = errors.New("portcheck: no available port")

// ValidatePort reports an [InvalidPortError] for ports outside 1..65535.
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return InvalidPortError{Port: port}
	}
	return nil
}

// Check validates the port and then probes it.
// An occupied port is reported as an [InUseError].
func Check(ctx context.Context, host string, port int) error {
	err := ValidatePort(port)
	if err != nil {
		return err
	}
	return probe(ctx, host, port)
}

// InUse reports whether something already listens on host:port.
func InUse(ctx context.Context, host string, port int) bool {
	return probe(ctx, host, port) != nil
}

// FindAvailable returns the first free port in [from, to].
// Zero bounds fall back to [DefaultFrom] and [DefaultTo].
func FindAvailable(ctx context.Context, host string, from, to int) (int, error) {
	if from == 0 {
		from = DefaultFrom
	}
	if to == 0 {
		to = DefaultTo
	}
	if err := ValidatePort(from); err != nil {
		return 0, err
	}
	if err := ValidatePort(to); err != nil {
		return 0, err
	}

	for port := from; port <= to; port++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !InUse(ctx, host, port) {
			return port, nil
		}
	}
	return 0, ErrNoAvailablePort
}

func probe(ctx context.Context, host string, port int) error {
	dialHost := host
	switch host {
	case "", "0.0.0.0", "::", "localhost":
		dialHost = "127.0.0.1"
	}

	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(dialHost, strconv.Itoa(port)))
	if err == nil {
		conn.Close()
		return InUseError{Port: port}
	}

	ls, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return InUseError{Port: port, Cause: err}
	}
	return ls.Close()
}
