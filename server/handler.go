// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/localrest/dispatch"
	"github.com/z5labs/localrest/internal/ioutil"
	"github.com/z5labs/localrest/internal/try"
	"github.com/z5labs/localrest/param"
	"github.com/z5labs/localrest/pkg/otelslog"
	"github.com/z5labs/localrest/pkg/slogfield"
	"github.com/z5labs/localrest/route"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

// RoutesPath is the reserved endpoint listing every registered route.
const RoutesPath = "/api/routes"

// RequestIDHeader carries the id the server assigned to a request.
const RequestIDHeader = "X-Request-Id"

const (
	textPlain = "text/plain; charset=utf-8"
	redacted  = "[REDACTED]"
)

type routesResponse struct {
	Routes []route.Info `json:"routes"`
}

// ServeHTTP implements the [http.Handler] interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	prefix, token := "/", ""
	if inst := s.inst.Load(); inst != nil {
		prefix, token = inst.prefix, inst.token
	}

	id := uuid.NewString()
	w.Header().Set(RequestIDHeader, id)
	ctx = otelslog.WithRequestID(ctx, id)

	status := http.StatusOK
	w = httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				status = code
				next(code)
			}
		},
	})

	req := param.NewRequest(r, param.MaxBodyBytes(s.maxBodyBytes))
	path := r.URL.Path
	inPrefix := strings.HasPrefix(path, prefix) || path+"/" == prefix

	reserved := inPrefix && r.Method == http.MethodGet && path == RoutesPath
	rt, found := s.registry.Lookup(r.Method, path)
	found = found && inPrefix
	unregistered := !reserved && !found

	s.sink(ctx, "request log", func() {
		s.requestLog.LogRequest(id, r.Method, loggedURL(r.URL), req.ClientIP(), redact(req.Headers()), req.Body(), unregistered)
	})

	var out route.ResponseBuffer
	defer func() {
		d := time.Since(start)
		s.sink(ctx, "request log", func() {
			s.requestLog.LogResponse(id, status, flatten(w.Header()), string(out.Payload()), d, unregistered)
		})
		s.sink(ctx, "metrics", func() {
			s.metrics.RecordCall(r.Method, path, status, d, req.ClientIP(), unregistered)
		})
	}()

	switch {
	case reserved:
		err := out.SetJSON(http.StatusOK, routesResponse{Routes: s.registry.Routes()})
		if err != nil {
			s.fail(ctx, &out, "failed to encode routes", err)
		}
	case !found:
		out.SetText(http.StatusNotFound, textPlain, "Route not found")
	case ioutil.IsTooLarge(req.BodyErr()):
		s.sink(ctx, "request log", func() {
			s.requestLog.LogError("request body too large", req.BodyErr())
		})
		s.log.WarnContext(ctx, "rejected request body", slogfield.RequestID(id), slogfield.Error(req.BodyErr()))
		out.SetText(http.StatusRequestEntityTooLarge, textPlain, "Request body too large")
	case !authorized(req.Token(), token):
		out.SetText(http.StatusUnauthorized, textPlain, "Unauthorized")
	default:
		s.invoke(ctx, req, rt, &out)
	}

	err := writeBuffer(w, &out)
	if err != nil {
		s.sink(ctx, "request log", func() {
			s.requestLog.LogError("failed to write response", err)
		})
		s.log.ErrorContext(ctx, "failed to write response", slogfield.RequestID(id), slogfield.Error(err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) invoke(ctx context.Context, req *param.Request, rt route.Route, out *route.ResponseBuffer) {
	args := param.Resolve(req, rt.Signature)

	buf := &route.ResponseBuffer{}
	err := s.invoker.Invoke(ctx, func(ctx context.Context) error {
		return rt.Handler.Handle(ctx, args, buf)
	})
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrTimeout):
		s.fail(ctx, out, "timeout", err)
		return
	default:
		s.fail(ctx, out, errorMessage(err), err)
		return
	}

	if !buf.HasPayload() && buf.StatusCode == 0 {
		err = route.Empty().Write(out)
		if err != nil {
			s.fail(ctx, out, "failed to encode response", err)
		}
		return
	}
	*out = *buf
}

// fail writes a 500 carrying message and records err with full detail.
func (s *Server) fail(ctx context.Context, out *route.ResponseBuffer, message string, err error) {
	s.sink(ctx, "request log", func() {
		s.requestLog.LogError(message, err)
	})
	s.log.ErrorContext(ctx, "failed to handle request", slogfield.String("message", message), slogfield.Error(err))

	werr := route.Failure(message).Write(out)
	if werr != nil {
		out.SetText(http.StatusInternalServerError, textPlain, message)
	}
}

// sink calls f and swallows any panic so sinks never fail a request.
func (s *Server) sink(ctx context.Context, name string, f func()) {
	err := try.Call(func() error {
		f()
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "sink panicked", slogfield.String("sink", name), slogfield.Error(err))
	}
}

// loggedURL is the request URI with every token query value redacted.
func loggedURL(u *url.URL) string {
	if u.RawQuery == "" {
		return u.RequestURI()
	}

	parts := strings.Split(u.RawQuery, "&")
	for i, part := range parts {
		key, _, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == "token" {
			parts[i] = key + "=" + redacted
		}
	}

	c := *u
	c.RawQuery = strings.Join(parts, "&")
	return c.RequestURI()
}

func authorized(got, want string) bool {
	if got == "" || want == "" || len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func errorMessage(err error) string {
	var perr try.PanicError
	if errors.As(err, &perr) {
		return fmt.Sprint(perr.Value)
	}
	return err.Error()
}

func writeBuffer(w http.ResponseWriter, buf *route.ResponseBuffer) error {
	status := buf.Status()
	payload := buf.Payload()
	if !bodyAllowedForStatus(status) {
		payload = nil
	}

	h := w.Header()
	if buf.ContentType != "" {
		h.Set("Content-Type", buf.ContentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(status)
	if len(payload) == 0 {
		return nil
	}

	_, err := w.Write(payload)
	return err
}

func bodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

func flatten(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k, vs := range h {
		m[k] = strings.Join(vs, ", ")
	}
	return m
}

func redact(h map[string]string) map[string]string {
	if _, ok := h["Authorization"]; ok {
		h["Authorization"] = redacted
	}
	return h
}
