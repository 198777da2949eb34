// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fixedpool runs a fixed set of tasks to completion.
package fixedpool

import (
	"context"
	"errors"
	"sync"

	"github.com/z5labs/localrest/internal/try"
)

// Task is a unit of work run on its own goroutine.
type Task func(context.Context) error

// Wait runs every task concurrently and blocks until all of them return.
// The first failing task cancels the context shared by the others.
// Panics are reported as [try.PanicError].
func Wait(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	errCh := make(chan error, len(tasks))

	for _, task := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()

			err := try.Call(func() error {
				return t(ctx)
			})
			if err == nil {
				return
			}
			errCh <- err
			cancel(err)
		}(task)
	}

	wg.Wait()
	close(errCh)

	var jerr error
	for err := range errCh {
		jerr = errors.Join(jerr, err)
	}
	return jerr
}
