// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ioutil

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/z5labs/localrest/internal/try"

	"github.com/stretchr/testify/assert"
)

type readCloser struct {
	io.Reader
	closed   bool
	closeErr error
}

func (rc *readCloser) Close() error {
	rc.closed = true
	return rc.closeErr
}

func TestReadAllAndTryClose(t *testing.T) {
	t.Run("will read and close", func(t *testing.T) {
		t.Run("if the reader is an io.ReadCloser", func(t *testing.T) {
			rc := &readCloser{Reader: strings.NewReader("hello")}

			b, err := ReadAllAndTryClose(rc, 0)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", string(b)) {
				return
			}
			if !assert.True(t, rc.closed) {
				return
			}
		})
	})

	t.Run("will return a TooLargeError", func(t *testing.T) {
		t.Run("if the content exceeds the limit", func(t *testing.T) {
			b, err := ReadAllAndTryClose(strings.NewReader("hello world"), 5)
			if !assert.True(t, IsTooLarge(err)) {
				return
			}
			if !assert.Equal(t, "hello", string(b)) {
				return
			}
		})
	})

	t.Run("will return a CloseError", func(t *testing.T) {
		t.Run("if closing fails", func(t *testing.T) {
			closeErr := errors.New("close failed")
			rc := &readCloser{Reader: strings.NewReader("x"), closeErr: closeErr}

			_, err := ReadAllAndTryClose(rc, 0)

			var cerr try.CloseError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			if !assert.ErrorIs(t, err, closeErr) {
				return
			}
		})
	})
}
