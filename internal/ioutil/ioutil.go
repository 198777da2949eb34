// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ioutil

import (
	"errors"
	"fmt"
	"io"

	"github.com/z5labs/localrest/internal/try"
)

// TooLargeError is returned when a reader yields more than the allowed bytes.
type TooLargeError struct {
	Limit int64
}

// Error implements the [error] interface.
func (e TooLargeError) Error() string {
	return fmt.Sprintf("content exceeds %d bytes", e.Limit)
}

// ReadAllAndTryClose reads r to EOF and closes it if it is an [io.Closer].
// A positive limit caps how much is read; exceeding it returns the first
// limit bytes together with a [TooLargeError].
func ReadAllAndTryClose(r io.Reader, limit int64) (_ []byte, err error) {
	defer try.Close(&err, r)

	if limit <= 0 {
		return io.ReadAll(r)
	}

	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return b, err
	}
	if int64(len(b)) > limit {
		return b[:limit], TooLargeError{Limit: limit}
	}
	return b, nil
}

// IsTooLarge reports whether err came from exceeding a read limit.
func IsTooLarge(err error) bool {
	var tle TooLargeError
	return errors.As(err, &tle)
}
