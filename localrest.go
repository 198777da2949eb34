// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package localrest exposes methods of a host application as local REST
// endpoints.
//
// Methods are annotated with //localrest: directives and turned into route
// handlers by the localrest-gen command. At runtime a [Host] owns the HTTP
// server, the main loop dispatcher and the request log and metrics sinks.
// Generated handlers hop onto the host's main loop before calling into the
// annotated method, so the method never races with the rest of the host.
package localrest

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/z5labs/localrest/config"
	"github.com/z5labs/localrest/dispatch"
	"github.com/z5labs/localrest/metrics"
	"github.com/z5labs/localrest/param"
	"github.com/z5labs/localrest/pkg/otelconfig"
	"github.com/z5labs/localrest/requestlog"
)

// EnvPrefix is the prefix of environment variables read by [Sources].
const EnvPrefix = "LOCALREST_"

// App is a host application, usually the [Host] server and main loop
// grouped together.
type App interface {
	Run(context.Context) error
}

// AppFunc is a functional implementation of the [App] interface.
type AppFunc func(context.Context) error

// Run implements the [App] interface.
func (f AppFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// AppBuilder turns a decoded host config into an [App].
type AppBuilder[T any] interface {
	Build(ctx context.Context, cfg T) (App, error)
}

// AppBuilderFunc is a functional implementation of
// the [AppBuilder] interface.
type AppBuilderFunc[T any] func(context.Context, T) (App, error)

// Build implements the [AppBuilder] interface.
func (f AppBuilderFunc[T]) Build(ctx context.Context, cfg T) (App, error) {
	return f(ctx, cfg)
}

// Run layers srcs into the host config T, builds the host application
// from it and runs it until it returns. Host applications usually pass
// the result of [Sources] and embed [Config] in T.
func Run[T any](ctx context.Context, builder AppBuilder[T], srcs ...config.Source) error {
	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	var cfg T
	err = m.Unmarshal(&cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}

	app, err := builder.Build(ctx, cfg)
	if err != nil {
		return AppBuildError{Cause: err}
	}

	err = app.Run(ctx)
	if err != nil {
		return AppRunError{Cause: err}
	}
	return nil
}

// Defaults is the [config.Source] every other source overrides.
func Defaults() config.Source {
	return config.Map{
		"server": map[string]any{
			"url":              "http://localhost:8000/",
			"token":            "",
			"shutdown_timeout": "5s",
			"max_body_bytes":   param.DefaultMaxBodyBytes,
		},
		"dispatch": map[string]any{
			"timeout":    dispatch.DefaultTimeout.String(),
			"queue_size": dispatch.DefaultQueueSize,
			"tick":       "16ms",
		},
		"log": map[string]any{
			"level":  "INFO",
			"format": "text",
		},
		"request_log": map[string]any{
			"capacity":        requestlog.DefaultCapacity,
			"max_body_length": requestlog.DefaultMaxBodyLength,
		},
		"metrics": map[string]any{
			"capacity": metrics.DefaultCapacity,
		},
		"otel": map[string]any{
			"exporter":     otelconfig.ExporterNone,
			"service_name": "localrest",
		},
	}
}

// Sources layers [Defaults], the documents in docs rendered as text
// templates, and LOCALREST_ prefixed environment variables. Later documents
// override earlier ones and nil documents are skipped.
//
// Documents are YAML unless read through a [config.FileReader] whose path
// ends in .json.
func Sources(docs ...io.Reader) []config.Source {
	srcs := []config.Source{Defaults()}
	for _, r := range docs {
		if r == nil {
			continue
		}
		srcs = append(srcs, document(r))
	}
	return append(srcs, config.FromEnv(EnvPrefix))
}

func document(r io.Reader) config.Source {
	rendered := config.RenderTextTemplate(r)
	if f, ok := r.(*config.FileReader); ok && strings.EqualFold(path.Ext(f.Path()), ".json") {
		return config.FromJson(rendered)
	}
	return config.FromYaml(rendered)
}

// ConfigReadError is returned by [Run] when a config source fails to apply.
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("localrest: failed to read host config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError is returned by [Run] when the layered config does
// not decode into the host config type.
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("localrest: failed to decode host config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// AppBuildError is returned by [Run] when the host application can not be
// built from its config.
type AppBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppBuildError) Error() string {
	return fmt.Sprintf("localrest: failed to build host: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppBuildError) Unwrap() error {
	return e.Cause
}

// AppRunError wraps the error the host application stopped with.
type AppRunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e AppRunError) Error() string {
	return fmt.Sprintf("localrest: host stopped: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e AppRunError) Unwrap() error {
	return e.Cause
}
