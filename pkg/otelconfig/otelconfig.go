// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig initializes the OpenTelemetry tracer provider from config.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Exporter names accepted by [Config].
const (
	ExporterNone        = "none"
	ExporterStdout      = "stdout"
	ExporterOTLP        = "otlp"
	ExporterGoogleCloud = "gcp"
)

// Config selects and configures a trace exporter.
type Config struct {
	Exporter    string `config:"exporter"`
	ServiceName string `config:"service_name"`

	OTLP struct {
		Target string `config:"target"`
	} `config:"otlp"`

	GoogleCloud struct {
		ProjectID string `config:"project_id"`
	} `config:"gcp"`
}

// UnknownExporterError
type UnknownExporterError struct {
	Exporter string
}

// Error implements the [error] interface.
func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown otel exporter: %s", e.Exporter)
}

// Initializer returns the [Initializer] for the configured exporter.
// An empty exporter is the same as [ExporterNone].
func (cfg Config) Initializer() (Initializer, error) {
	common := ServiceName(cfg.ServiceName)
	switch strings.ToLower(cfg.Exporter) {
	case "", ExporterNone:
		return Noop, nil
	case ExporterStdout:
		return Local(common), nil
	case ExporterOTLP:
		return OTLP(common, OTLPTarget(cfg.OTLP.Target)), nil
	case ExporterGoogleCloud:
		return GoogleCloud(common, GoogleCloudProjectID(cfg.GoogleCloud.ProjectID)), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.Exporter}
	}
}

// InitializeOTel installs the configured tracer provider and the W3C trace
// context propagator as the otel globals.
func (cfg Config) InitializeOTel(ctx context.Context) error {
	init, err := cfg.Initializer()
	if err != nil {
		return err
	}

	tp, err := init.Init(ctx)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

// Common
type Common struct {
	ServiceName string
	Resource    *resource.Resource
}

// tracerProvider batches spans into exporter. Without an explicit
// [Resource] the resource is built from the service name and detectors.
func (c Common) tracerProvider(ctx context.Context, exporter sdktrace.SpanExporter, detectors ...resource.Detector) (trace.TracerProvider, error) {
	res := c.Resource
	if res == nil {
		var err error
		res, err = resource.New(
			ctx,
			resource.WithDetectors(detectors...),
			resource.WithTelemetrySDK(),
			resource.WithAttributes(semconv.ServiceName(c.ServiceName)),
		)
		if err != nil {
			return nil, err
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

// CommonOption
type CommonOption interface {
	GoogleCloudOption
	LocalOption
	OTLPOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) ApplyGCP(cfg *GoogleCloudConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(&cfg.Common)
}

// ServiceName
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		if name == "" {
			name = "localrest"
		}
		c.ServiceName = name
	})
}

// Resource overrides the resource which is otherwise detected.
func Resource(res *resource.Resource) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.Resource = res
	})
}

// Initializer
type Initializer interface {
	Init(context.Context) (trace.TracerProvider, error)
}

// Noop leaves the current global tracer provider in place.
var Noop = noopInitializer{}

type noopInitializer struct{}

func (noopInitializer) Init(context.Context) (trace.TracerProvider, error) {
	return otel.GetTracerProvider(), nil
}

// LocalConfig
type LocalConfig struct {
	Common

	Out io.Writer
}

// LocalOption
type LocalOption interface {
	ApplyLocal(*LocalConfig)
}

type localOptionFunc func(*LocalConfig)

func (f localOptionFunc) ApplyLocal(cfg *LocalConfig) {
	f(cfg)
}

// LocalWriter sets where spans are written. Defaults to stdout.
func LocalWriter(w io.Writer) LocalOption {
	return localOptionFunc(func(cfg *LocalConfig) {
		cfg.Out = w
	})
}

// Local returns an Initializer which pretty prints spans.
func Local(opts ...LocalOption) Initializer {
	cfg := LocalConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt.ApplyLocal(&cfg)
	}
	return cfg
}

// Init implements the [Initializer] interface.
func (cfg LocalConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}
	return cfg.tracerProvider(ctx, exporter)
}
