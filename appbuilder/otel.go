// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"
	"errors"

	"github.com/z5labs/localrest"
	"github.com/z5labs/localrest/app"
	"github.com/z5labs/localrest/lifecycle"

	"go.opentelemetry.io/otel"
)

// OTelInitializer represents anything which can initialize the OTel SDK.
type OTelInitializer interface {
	InitializeOTel(context.Context) error
}

// OTel is a [localrest.AppBuilder] middleware which initializes the OTel SDK.
// It also ensures that the OTel SDK is properly shutdown when the built
// [localrest.App] stops running.
func OTel[T OTelInitializer](builder localrest.AppBuilder[T]) localrest.AppBuilder[T] {
	return localrest.AppBuilderFunc[T](func(ctx context.Context, cfg T) (localrest.App, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		err := cfg.InitializeOTel(ctx)
		if err != nil {
			return nil, err
		}

		onPostRun := lifecycle.MultiHook(
			tryShutdown(otel.GetTracerProvider()),
			tryShutdown(otel.GetMeterProvider()),
		)

		base, err := builder.Build(ctx, cfg)
		if err != nil {
			return nil, joinHookErr(err, onPostRun.Run(ctx))
		}

		lc, ok := lifecycle.FromContext(ctx)
		if !ok {
			lc = &lifecycle.Context{}
			lc.OnPostRun(onPostRun)
			return app.WithLifecycleHooks(base, lc), nil
		}

		lc.OnPostRun(onPostRun)
		return base, nil
	})
}

type shutdowner interface {
	Shutdown(context.Context) error
}

func tryShutdown(v any) lifecycle.HookFunc {
	return func(ctx context.Context) error {
		if v == nil {
			return nil
		}

		s, ok := v.(shutdowner)
		if !ok {
			return nil
		}
		return s.Shutdown(ctx)
	}
}

func joinHookErr(err, hookErr error) error {
	if hookErr == nil {
		return err
	}
	return errors.Join(err, hookErr)
}
