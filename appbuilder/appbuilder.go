// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package appbuilder provides middleware for [localrest.AppBuilder]s.
package appbuilder

import (
	"context"

	"github.com/z5labs/localrest"
	"github.com/z5labs/localrest/app"
	"github.com/z5labs/localrest/internal/try"
	"github.com/z5labs/localrest/lifecycle"
)

// Recover will wrap the given [localrest.AppBuilder] with panic recovery.
func Recover[T any](builder localrest.AppBuilder[T]) localrest.AppBuilder[T] {
	return localrest.AppBuilderFunc[T](func(ctx context.Context, cfg T) (_ localrest.App, err error) {
		defer try.Recover(&err)

		return builder.Build(ctx, cfg)
	})
}

// Lifecycle places a [lifecycle.Context] in the build context so the
// builder, and any middleware below it, can register hooks. The built
// [localrest.App] runs those hooks around its execution. When the build
// fails the post run hooks registered so far still run.
func Lifecycle[T any](builder localrest.AppBuilder[T]) localrest.AppBuilder[T] {
	return localrest.AppBuilderFunc[T](func(ctx context.Context, cfg T) (localrest.App, error) {
		lc := &lifecycle.Context{}
		base, err := builder.Build(lifecycle.NewContext(ctx, lc), cfg)
		if err != nil {
			return nil, joinHookErr(err, lc.PostRun().Run(context.WithoutCancel(ctx)))
		}
		return app.WithLifecycleHooks(base, lc), nil
	})
}
