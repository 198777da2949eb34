// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health combines the liveness of the parts of a host.
package health

import (
	"context"
	"sync/atomic"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// MetricFunc is a func implementation of [Metric].
type MetricFunc func(context.Context) bool

// Healthy implements the [Metric] interface.
func (f MetricFunc) Healthy(ctx context.Context) bool {
	return f(ctx)
}

// Flag is a [Metric] which is set by its owner. The zero value is unhealthy.
type Flag struct {
	healthy atomic.Bool
}

// Set records the current state.
func (f *Flag) Set(healthy bool) {
	f.healthy.Store(healthy)
}

// Healthy implements the [Metric] interface.
func (f *Flag) Healthy(ctx context.Context) bool {
	return f.healthy.Load()
}

// And returns a [Metric] which is healthy only while every one of metrics is.
// No metrics at all is healthy.
func And(metrics ...Metric) Metric {
	return MetricFunc(func(ctx context.Context) bool {
		for _, m := range metrics {
			if !m.Healthy(ctx) {
				return false
			}
		}
		return true
	})
}
