// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package maskslog provides a slog.Handler which masks sensitive
// attributes, such as access tokens, before they are written.
package maskslog

import (
	"context"
	"log/slog"
	"strings"
)

type options struct {
	attrTransformers   map[string]func(slog.Attr) slog.Attr
	recordTransformers []func(slog.Record) slog.Record
}

// Option helps configure the Handler.
type Option interface {
	applyOption(*options)
}

type optionFunc func(*options)

func (f optionFunc) applyOption(opts *options) {
	f(opts)
}

// Message registers a function for masking slog.Record messages.
func Message(f func(string) string) Option {
	return optionFunc(func(o *options) {
		o.recordTransformers = append(o.recordTransformers, func(r slog.Record) slog.Record {
			r.Message = f(r.Message)
			return r
		})
	})
}

// Attr registers a function for masking a slog.Attr given its key.
// Keys are matched case-insensitively.
func Attr(key string, f func(slog.Attr) slog.Attr) Option {
	return optionFunc(func(o *options) {
		o.attrTransformers[strings.ToLower(key)] = f
	})
}

// Credentials masks the attributes which carry the server access token.
func Credentials() Option {
	return optionFunc(func(o *options) {
		for _, key := range []string{"token", "authorization", "access_token"} {
			o.attrTransformers[key] = AnonymousStringAttr
		}
	})
}

// AnonymousStringAttr is a helper function for converting any slog.Attr
// into the anonymized string, "****". It completely ignores the given
// slog.Attr value type and always return a string value.
func AnonymousStringAttr(a slog.Attr) slog.Attr {
	return slog.String(a.Key, "****")
}

// Handler is an slog.Handler.
type Handler struct {
	slog slog.Handler

	attrTransformers   map[string]func(slog.Attr) slog.Attr
	recordTransformers []func(slog.Record) slog.Record
}

// NewHandler returns a new Handler.
func NewHandler(h slog.Handler, opts ...Option) *Handler {
	o := &options{
		attrTransformers: make(map[string]func(slog.Attr) slog.Attr),
	}
	for _, opt := range opts {
		opt.applyOption(o)
	}
	return &Handler{
		slog:               h,
		attrTransformers:   o.attrTransformers,
		recordTransformers: o.recordTransformers,
	}
}

func (h *Handler) with(next slog.Handler) *Handler {
	return &Handler{
		slog:               next,
		attrTransformers:   h.attrTransformers,
		recordTransformers: h.recordTransformers,
	}
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	for _, t := range h.recordTransformers {
		record = t(record)
	}
	if len(h.attrTransformers) == 0 {
		return h.slog.Handle(ctx, record)
	}

	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.mask(a))
		return true
	})

	nr := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	nr.AddAttrs(attrs...)
	return h.slog.Handle(ctx, nr)
}

func (h *Handler) mask(a slog.Attr) slog.Attr {
	if f, ok := h.attrTransformers[strings.ToLower(a.Key)]; ok {
		return f(a)
	}
	if a.Value.Kind() != slog.KindGroup {
		return a
	}

	group := a.Value.Group()
	masked := make([]any, len(group))
	for i, ga := range group {
		masked[i] = h.mask(ga)
	}
	return slog.Group(a.Key, masked...)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nr := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		nr[i] = h.mask(a)
	}
	return h.with(h.slog.WithAttrs(nr))
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return h.with(h.slog.WithGroup(name))
}
