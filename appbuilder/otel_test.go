// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/z5labs/localrest"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type failToInitOTel struct{}

var errFailedToInitOTel = errors.New("failed to init otel")

func (failToInitOTel) InitializeOTel(ctx context.Context) error {
	return errFailedToInitOTel
}

type noopInitOTel struct{}

func (noopInitOTel) InitializeOTel(ctx context.Context) error {
	return nil
}

type tracerProvider struct {
	tracenoop.TracerProvider
	shutdown func(context.Context) error
}

func (tp tracerProvider) Shutdown(ctx context.Context) error {
	return tp.shutdown(ctx)
}

type tracerProviderInitOTel struct{}

var errTracerProviderFailedShutdown = errors.New("failed to shutdown tracer provider")

func (tracerProviderInitOTel) InitializeOTel(ctx context.Context) error {
	otel.SetTracerProvider(tracerProvider{shutdown: func(ctx context.Context) error {
		return errTracerProviderFailedShutdown
	}})
	return nil
}

type meterProvider struct {
	metricnoop.MeterProvider
	shutdown func(context.Context) error
}

func (mp meterProvider) Shutdown(ctx context.Context) error {
	return mp.shutdown(ctx)
}

type meterProviderInitOTel struct{}

var errMeterProviderFailedShutdown = errors.New("failed to shutdown meter provider")

func (meterProviderInitOTel) InitializeOTel(ctx context.Context) error {
	otel.SetMeterProvider(meterProvider{shutdown: func(ctx context.Context) error {
		return errMeterProviderFailedShutdown
	}})
	return nil
}

func noopApp(ctx context.Context) error {
	return nil
}

func TestOTel(t *testing.T) {
	t.Run("localrest.AppBuilder will return an error", func(t *testing.T) {
		t.Run("if InitializeOTel fails", func(t *testing.T) {
			b := OTel(localrest.AppBuilderFunc[failToInitOTel](func(ctx context.Context, cfg failToInitOTel) (localrest.App, error) {
				return nil, nil
			}))

			_, err := b.Build(context.Background(), failToInitOTel{})
			if !assert.ErrorIs(t, err, errFailedToInitOTel) {
				return
			}
		})

		t.Run("if the given localrest.AppBuilder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			b := OTel(localrest.AppBuilderFunc[noopInitOTel](func(ctx context.Context, cfg noopInitOTel) (localrest.App, error) {
				return nil, buildErr
			}))

			_, err := b.Build(context.Background(), noopInitOTel{})
			if !assert.ErrorIs(t, err, buildErr) {
				return
			}
		})

		t.Run("if the context is already cancelled", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			b := OTel(localrest.AppBuilderFunc[noopInitOTel](func(ctx context.Context, cfg noopInitOTel) (localrest.App, error) {
				return localrest.AppFunc(noopApp), nil
			}))

			_, err := b.Build(ctx, noopInitOTel{})
			if !assert.ErrorIs(t, err, context.Canceled) {
				return
			}
		})
	})

	t.Run("the built localrest.App will return an error", func(t *testing.T) {
		t.Run("if it fails to shutdown the tracer provider", func(t *testing.T) {
			b := OTel(localrest.AppBuilderFunc[tracerProviderInitOTel](func(ctx context.Context, cfg tracerProviderInitOTel) (localrest.App, error) {
				return localrest.AppFunc(noopApp), nil
			}))

			app, err := b.Build(context.Background(), tracerProviderInitOTel{})
			if !assert.Nil(t, err) {
				return
			}

			err = app.Run(context.Background())
			if !assert.ErrorIs(t, err, errTracerProviderFailedShutdown) {
				return
			}
		})

		t.Run("if it fails to shutdown the meter provider", func(t *testing.T) {
			b := Lifecycle(OTel(localrest.AppBuilderFunc[meterProviderInitOTel](func(ctx context.Context, cfg meterProviderInitOTel) (localrest.App, error) {
				return localrest.AppFunc(noopApp), nil
			})))

			app, err := b.Build(context.Background(), meterProviderInitOTel{})
			if !assert.Nil(t, err) {
				return
			}

			err = app.Run(context.Background())
			if !assert.ErrorIs(t, err, errMeterProviderFailedShutdown) {
				return
			}
		})
	})
}
