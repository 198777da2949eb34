// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrMissingTarget is returned when the OTLP exporter has no collector address.
var ErrMissingTarget = errors.New("otelconfig: otlp target is required")

// OTLPConfig
type OTLPConfig struct {
	Common

	// gRPC target string which is passed to grpc.Dial()
	Target string
}

// OTLPOption
type OTLPOption interface {
	ApplyOTLP(*OTLPConfig)
}

type otlpOptionFunc func(*OTLPConfig)

func (f otlpOptionFunc) ApplyOTLP(cfg *OTLPConfig) {
	f(cfg)
}

// OTLPTarget sets the collector address, e.g. localhost:4317.
func OTLPTarget(target string) OTLPOption {
	return otlpOptionFunc(func(cfg *OTLPConfig) {
		cfg.Target = target
	})
}

// OTLP returns an Initializer which exports spans to an OTLP collector over gRPC.
func OTLP(opts ...OTLPOption) Initializer {
	c := OTLPConfig{}
	for _, opt := range opts {
		opt.ApplyOTLP(&c)
	}
	return c
}

// Init implements the [Initializer] interface. The connection is not
// established until the first export.
func (cfg OTLPConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	if cfg.Target == "" {
		return nil, ErrMissingTarget
	}

	// The collector is expected to run next to the host.
	conn, err := grpc.DialContext(
		ctx,
		cfg.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	return cfg.tracerProvider(ctx, exporter)
}
