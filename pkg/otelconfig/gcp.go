// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

// GoogleCloudConfig
type GoogleCloudConfig struct {
	Common

	// ProjectID may be empty when running on Google Cloud, in which
	// case it is read from the metadata server.
	ProjectID string
}

// GoogleCloudOption
type GoogleCloudOption interface {
	ApplyGCP(*GoogleCloudConfig)
}

type gcpOptionFunc func(*GoogleCloudConfig)

func (f gcpOptionFunc) ApplyGCP(cfg *GoogleCloudConfig) {
	f(cfg)
}

// GoogleCloudProjectID sets the project spans are written to.
func GoogleCloudProjectID(id string) GoogleCloudOption {
	return gcpOptionFunc(func(cfg *GoogleCloudConfig) {
		cfg.ProjectID = id
	})
}

// GoogleCloud returns an Initializer which exports spans to Cloud Trace.
// The resource is detected from the Google Cloud environment.
func GoogleCloud(opts ...GoogleCloudOption) Initializer {
	var cfg GoogleCloudConfig
	for _, opt := range opts {
		opt.ApplyGCP(&cfg)
	}
	return cfg
}

// Init implements the [Initializer] interface.
func (cfg GoogleCloudConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	opts := []texporter.Option{
		texporter.WithContext(ctx),
		texporter.WithTraceClientOptions([]option.ClientOption{option.WithTelemetryDisabled()}),
	}
	if cfg.ProjectID != "" {
		opts = append(opts, texporter.WithProjectID(cfg.ProjectID))
	}

	exporter, err := texporter.New(opts...)
	if err != nil {
		return nil, err
	}
	return cfg.tracerProvider(ctx, exporter, gcp.NewDetector())
}
