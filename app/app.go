// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides helpers for common localrest.App implementation patterns.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"

	"github.com/z5labs/localrest"
	"github.com/z5labs/localrest/internal/try"
	"github.com/z5labs/localrest/lifecycle"

	"golang.org/x/sync/errgroup"
)

// Recover will wrap the given [localrest.App] with panic recovery.
// A recovered panic is returned as a [try.PanicError] which unwraps
// to the panic value when that value is an error.
func Recover(app localrest.App) localrest.App {
	return localrest.AppFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithSignalNotifications wraps a given [localrest.App] in an implementation
// that cancels the [context.Context] that's passed to app.Run if an [os.Signal]
// is received by the running process.
func WithSignalNotifications(app localrest.App, signals ...os.Signal) localrest.App {
	return localrest.AppFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// WithLifecycleHooks wraps a given [localrest.App] in an implementation
// that runs the pre run hooks of lc before app.Run and the post run hooks
// after it. Post run hooks always run, even when app fails or panics.
func WithLifecycleHooks(app localrest.App, lc *lifecycle.Context) localrest.App {
	return localrest.AppFunc(func(ctx context.Context) (err error) {
		defer runPostRunHook(ctx, lc.PostRun(), &err)

		err = lc.PreRun().Run(ctx)
		if err != nil {
			return err
		}
		return app.Run(ctx)
	})
}

func runPostRunHook(ctx context.Context, hook lifecycle.Hook, err *error) {
	// Hooks release resources so they must not observe the
	// cancellation which stopped the app.
	hookErr := hook.Run(context.WithoutCancel(ctx))

	// errors.Join will not return an error if both
	// *err and hookErr are nil.
	*err = errors.Join(*err, hookErr)
}

// Group runs every app concurrently. The first app to return cancels the
// context of the others and Group returns once all of them have returned.
func Group(apps ...localrest.App) localrest.App {
	return localrest.AppFunc(func(ctx context.Context) error {
		eg, egctx := errgroup.WithContext(ctx)
		ctx, cancel := context.WithCancel(egctx)
		defer cancel()

		for _, app := range apps {
			app := app
			eg.Go(func() error {
				defer cancel()
				return app.Run(ctx)
			})
		}
		return eg.Wait()
	})
}

// LockOSThread runs app with its goroutine wired to the current OS thread.
// Hosts whose main loop must stay on one thread run their dispatch pump
// through it.
func LockOSThread(app localrest.App) localrest.App {
	return localrest.AppFunc(func(ctx context.Context) error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		return app.Run(ctx)
	})
}

// IgnoreCanceled treats a [context.Canceled] error from app as a clean exit.
func IgnoreCanceled(app localrest.App) localrest.App {
	return localrest.AppFunc(func(ctx context.Context) error {
		err := app.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
