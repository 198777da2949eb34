// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelslog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type record struct {
	Message   string `json:"msg"`
	RequestID string `json:"request_id"`
	OTel      struct {
		TraceID string `json:"trace_id"`
		SpanID  string `json:"span_id"`
	} `json:"otel"`
}

func TestHandler_Handle(t *testing.T) {
	t.Run("will not add any correlation attrs", func(t *testing.T) {
		t.Run("if the span context is invalid and no request id is set", func(t *testing.T) {
			var buf bytes.Buffer
			log := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

			log.InfoContext(context.Background(), "test")

			var rec record
			err := json.Unmarshal(buf.Bytes(), &rec)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "test", rec.Message) {
				return
			}
			if !assert.Empty(t, rec.RequestID) {
				return
			}
			if !assert.Empty(t, rec.OTel.TraceID) {
				return
			}
		})
	})

	t.Run("will add the request id", func(t *testing.T) {
		t.Run("if the context carries one", func(t *testing.T) {
			var buf bytes.Buffer
			log := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

			ctx := WithRequestID(context.Background(), "abc")
			log.InfoContext(ctx, "test")

			var rec record
			err := json.Unmarshal(buf.Bytes(), &rec)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "abc", rec.RequestID) {
				return
			}
			if !assert.Empty(t, rec.OTel.SpanID) {
				return
			}
		})
	})

	t.Run("will add trace id and span id", func(t *testing.T) {
		t.Run("if the span context is valid", func(t *testing.T) {
			var buf bytes.Buffer
			log := New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

			exporter, err := stdouttrace.New(stdouttrace.WithWriter(io.Discard))
			if !assert.Nil(t, err) {
				return
			}
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(resource.Default()),
			)
			defer tp.Shutdown(context.Background())

			ctx := WithRequestID(context.Background(), "abc")
			spanCtx, span := tp.Tracer("otelslog").Start(ctx, "test")
			defer span.End()
			if !assert.True(t, span.SpanContext().IsValid()) {
				return
			}

			log.InfoContext(spanCtx, "test")

			var rec record
			err = json.Unmarshal(buf.Bytes(), &rec)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, span.SpanContext().TraceID().String(), rec.OTel.TraceID) {
				t.Log(buf.String())
				return
			}
			if !assert.Equal(t, span.SpanContext().SpanID().String(), rec.OTel.SpanID) {
				t.Log(buf.String())
				return
			}
			if !assert.Equal(t, "abc", rec.RequestID) {
				return
			}
		})
	})
}

func TestRequestID(t *testing.T) {
	t.Run("will report no request id", func(t *testing.T) {
		t.Run("if the id is empty", func(t *testing.T) {
			_, ok := RequestID(WithRequestID(context.Background(), ""))
			if !assert.False(t, ok) {
				return
			}
		})
	})
}

func TestHandler_WithAttrs(t *testing.T) {
	t.Run("will keep adding the request id", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{})).
			WithAttrs([]slog.Attr{slog.String("route", "GET /api/hello")})

		ctx := WithRequestID(context.Background(), "abc")
		slog.New(h).InfoContext(ctx, "test")

		var rec struct {
			record
			Route string `json:"route"`
		}
		err := json.Unmarshal(buf.Bytes(), &rec)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "GET /api/hello", rec.Route) {
			return
		}
		if !assert.Equal(t, "abc", rec.RequestID) {
			return
		}
	})
}
