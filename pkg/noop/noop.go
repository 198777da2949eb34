// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop provides do nothing implementations used as defaults.
package noop

import (
	"context"
	"log/slog"
)

// LogHandler is a [slog.Handler] which is never enabled.
type LogHandler struct{}

// Enabled implements the [slog.Handler] interface.
func (LogHandler) Enabled(context.Context, slog.Level) bool { return false }

// Handle implements the [slog.Handler] interface.
func (LogHandler) Handle(context.Context, slog.Record) error { return nil }

// WithAttrs implements the [slog.Handler] interface.
func (h LogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

// WithGroup implements the [slog.Handler] interface.
func (h LogHandler) WithGroup(string) slog.Handler { return h }

// Logger returns a logger which drops everything. Components start with it
// until a log handler is configured.
func Logger() *slog.Logger {
	return slog.New(LogHandler{})
}
