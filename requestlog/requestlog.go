// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package requestlog records the request, response and error history of a server.
package requestlog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/z5labs/localrest/internal/ring"
	"github.com/z5labs/localrest/internal/try"
	"github.com/z5labs/localrest/pkg/noop"
	"github.com/z5labs/localrest/pkg/slogfield"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 1000

// DefaultMaxBodyLength bounds the recorded size of request and response bodies.
const DefaultMaxBodyLength = 10 * 1024

// EntryType distinguishes the kinds of entries a Store holds.
type EntryType string

const (
	Request  EntryType = "request"
	Response EntryType = "response"
	Error    EntryType = "error"
)

// Entry is a single recorded event.
type Entry struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Type         EntryType         `json:"type"`
	RequestID    string            `json:"requestId,omitempty"`
	Method       string            `json:"method,omitempty"`
	URL          string            `json:"url,omitempty"`
	StatusCode   int               `json:"statusCode,omitempty"`
	ClientIP     string            `json:"clientIp,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         string            `json:"body,omitempty"`
	Duration     time.Duration     `json:"duration,omitempty"`
	Message      string            `json:"message,omitempty"`
	Error        string            `json:"error,omitempty"`
	Unregistered bool              `json:"unregistered,omitempty"`
}

// Filter narrows the entries returned by List.
type Filter struct {
	Type             EntryType
	Method           string
	UnregisteredOnly bool

	// Limit caps the number of entries returned. Zero means no limit.
	Limit int
}

func (f Filter) match(e Entry) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
		return false
	}
	if f.UnregisteredOnly && !e.Unregistered {
		return false
	}
	return true
}

// Option configures a Store.
type Option func(*Store)

// Capacity sets the maximum number of entries kept.
func Capacity(n int) Option {
	return func(s *Store) {
		s.capacity = n
	}
}

// MaxBodyLength sets the maximum number of body bytes kept per entry.
func MaxBodyLength(n int) Option {
	return func(s *Store) {
		s.maxBody = n
	}
}

// LogHandler mirrors every recorded entry to the given handler.
func LogHandler(h slog.Handler) Option {
	return func(s *Store) {
		s.log = slog.New(h)
	}
}

// Clock overrides the time source used for entry timestamps.
func Clock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is an in-memory bounded request history.
// When the capacity is reached the oldest entry is evicted.
type Store struct {
	log      *slog.Logger
	now      func() time.Time
	capacity int
	maxBody  int
	entries  *ring.Buffer[Entry]
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		log:      noop.Logger(),
		now:      time.Now,
		capacity: DefaultCapacity,
		maxBody:  DefaultMaxBodyLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity <= 0 {
		s.capacity = DefaultCapacity
	}
	s.entries = ring.New[Entry](s.capacity)
	return s
}

// LogRequest records an incoming request.
func (s *Store) LogRequest(id, method, url, clientIP string, headers map[string]string, body string, unregistered bool) {
	s.record(Entry{
		Type:         Request,
		RequestID:    id,
		Method:       method,
		URL:          url,
		ClientIP:     clientIP,
		Headers:      cloneHeaders(headers),
		Body:         s.truncate(body),
		Unregistered: unregistered,
	})

	s.log.LogAttrs(
		context.Background(),
		slog.LevelInfo,
		"received request",
		slogfield.RequestID(id),
		slogfield.String("method", method),
		slogfield.String("url", url),
		slogfield.String("client_ip", clientIP),
		slogfield.Bool("unregistered", unregistered),
	)
}

// LogResponse records the response sent for a request.
func (s *Store) LogResponse(id string, status int, headers map[string]string, body string, d time.Duration, unregistered bool) {
	s.record(Entry{
		Type:         Response,
		RequestID:    id,
		StatusCode:   status,
		Headers:      cloneHeaders(headers),
		Body:         s.truncate(body),
		Duration:     d,
		Unregistered: unregistered,
	})

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	s.log.LogAttrs(
		context.Background(),
		level,
		"sent response",
		slogfield.RequestID(id),
		slogfield.StatusCode(status),
		slogfield.Duration("duration", d),
		slogfield.Bool("unregistered", unregistered),
	)
}

// LogError records a failure that occurred while serving.
// Panics recovered by the server keep their stack in the entry.
func (s *Store) LogError(message string, err error) {
	e := Entry{
		Type:    Error,
		Message: message,
	}
	if err != nil {
		e.Error = err.Error()

		var perr try.PanicError
		if errors.As(err, &perr) && len(perr.Stack) > 0 {
			e.Error += "\n" + string(perr.Stack)
		}
	}
	s.record(e)

	s.log.LogAttrs(
		context.Background(),
		slog.LevelError,
		message,
		slogfield.Error(err),
	)
}

func (s *Store) record(e Entry) {
	e.ID = uuid.NewString()
	e.Timestamp = s.now()
	s.entries.Push(e)
}

func (s *Store) truncate(body string) string {
	if s.maxBody <= 0 || len(body) <= s.maxBody {
		return body
	}
	return body[:s.maxBody] + "...(truncated)"
}

// Entries returns every stored entry, oldest first.
func (s *Store) Entries() []Entry {
	return s.entries.Snapshot()
}

// List returns the entries matching f, newest first.
func (s *Store) List(f Filter) []Entry {
	all := s.entries.Snapshot()

	var out []Entry
	for i := len(all) - 1; i >= 0; i-- {
		if !f.match(all[i]) {
			continue
		}
		out = append(out, all[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Request returns every entry recorded for the given request id, oldest first.
func (s *Store) Request(id string) []Entry {
	var out []Entry
	for _, e := range s.entries.Snapshot() {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Clear removes every stored entry.
func (s *Store) Clear() {
	s.entries.Clear()
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
