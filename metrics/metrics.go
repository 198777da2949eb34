// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package metrics keeps a bounded history of served calls and
// aggregates it on demand.
package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/z5labs/localrest/internal/ring"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// UnregisteredRoute is the route attribute reported for calls that matched
// no registered route. It keeps the attribute cardinality bounded.
const UnregisteredRoute = "unregistered"

// DefaultCapacity is the number of calls kept when no capacity is configured.
const DefaultCapacity = 1000

// Call is a single recorded API call.
type Call struct {
	Timestamp    time.Time     `json:"timestamp"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	StatusCode   int           `json:"statusCode"`
	Duration     time.Duration `json:"duration"`
	ClientIP     string        `json:"clientIp"`
	Unregistered bool          `json:"unregistered"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// Capacity sets the maximum number of calls kept.
func Capacity(n int) Option {
	return func(m *Monitor) {
		m.capacity = n
	}
}

// Clock overrides the time source.
func Clock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// MeterProvider sets the provider for the otel instruments.
// The global provider is used by default.
func MeterProvider(mp metric.MeterProvider) Option {
	return func(m *Monitor) {
		m.mp = mp
	}
}

// Monitor records calls into a ring and computes aggregates at read time.
type Monitor struct {
	now      func() time.Time
	capacity int
	calls    *ring.Buffer[Call]

	mp       metric.MeterProvider
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New returns an empty Monitor.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		now:      time.Now,
		capacity: DefaultCapacity,
		mp:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.capacity <= 0 {
		m.capacity = DefaultCapacity
	}
	m.calls = ring.New[Call](m.capacity)

	meter := m.mp.Meter("github.com/z5labs/localrest/metrics")
	requests, err := meter.Int64Counter(
		"localrest.server.requests",
		metric.WithDescription("Number of API calls served."),
	)
	if err != nil {
		requests, _ = noop.Meter{}.Int64Counter("localrest.server.requests")
	}
	duration, err := meter.Float64Histogram(
		"localrest.server.duration",
		metric.WithDescription("Duration of API calls."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		duration, _ = noop.Meter{}.Float64Histogram("localrest.server.duration")
	}
	m.requests = requests
	m.duration = duration
	return m
}

// RecordCall records a served call.
func (m *Monitor) RecordCall(method, path string, status int, d time.Duration, clientIP string, unregistered bool) {
	m.calls.Push(Call{
		Timestamp:    m.now(),
		Method:       method,
		Path:         path,
		StatusCode:   status,
		Duration:     d,
		ClientIP:     clientIP,
		Unregistered: unregistered,
	})

	route := path
	if unregistered {
		route = UnregisteredRoute
	}
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
		attribute.Bool("localrest.unregistered", unregistered),
	)
	m.requests.Add(context.Background(), 1, attrs)
	m.duration.Record(context.Background(), milliseconds(d), attrs)
}

// Len returns the number of recorded calls.
func (m *Monitor) Len() int {
	return m.calls.Len()
}

// Clear removes every recorded call.
func (m *Monitor) Clear() {
	m.calls.Clear()
}

// RequestsPerSecond averages the calls received in the last minute.
func (m *Monitor) RequestsPerSecond() float64 {
	since := m.now().Add(-time.Minute)

	var n int
	for _, c := range m.calls.Snapshot() {
		if !c.Timestamp.Before(since) {
			n++
		}
	}
	return float64(n) / 60
}

// AverageResponseTime is the mean duration of every recorded call.
func (m *Monitor) AverageResponseTime() time.Duration {
	return average(m.calls.Snapshot())
}

// AverageResponseTimeFor is the mean duration of the calls to path.
func (m *Monitor) AverageResponseTimeFor(path string) time.Duration {
	var calls []Call
	for _, c := range m.calls.Snapshot() {
		if c.Path == path {
			calls = append(calls, c)
		}
	}
	return average(calls)
}

// ResponseTimeByPath is the mean duration per path of registered calls.
func (m *Monitor) ResponseTimeByPath() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for path, calls := range m.registeredByPath() {
		out[path] = average(calls)
	}
	return out
}

// RequestCountByPath counts registered calls per path.
func (m *Monitor) RequestCountByPath() map[string]int {
	out := make(map[string]int)
	for path, calls := range m.registeredByPath() {
		out[path] = len(calls)
	}
	return out
}

// ErrorRate is the percentage of recorded calls with a status of 400 or above.
func (m *Monitor) ErrorRate() float64 {
	calls := m.calls.Snapshot()
	if len(calls) == 0 {
		return 0
	}

	var n int
	for _, c := range calls {
		if c.StatusCode >= 400 {
			n++
		}
	}
	return float64(n) / float64(len(calls)) * 100
}

// Recent returns up to n calls, newest first.
func (m *Monitor) Recent(n int) []Call {
	return m.recent(n, func(Call) bool { return true })
}

// RecentFor returns up to n calls to path, newest first.
func (m *Monitor) RecentFor(path string, n int) []Call {
	return m.recent(n, func(c Call) bool { return c.Path == path })
}

func (m *Monitor) recent(n int, keep func(Call) bool) []Call {
	calls := m.calls.Snapshot()

	var out []Call
	for i := len(calls) - 1; i >= 0 && len(out) < n; i-- {
		if keep(calls[i]) {
			out = append(out, calls[i])
		}
	}
	return out
}

// PathTiming is the mean duration of the calls to a path.
type PathTiming struct {
	Path    string        `json:"path"`
	Average time.Duration `json:"average"`
}

// Summary is a point in time view of the recorded calls.
type Summary struct {
	TotalRequests        int           `json:"totalRequests"`
	RegisteredRequests   int           `json:"registeredRequests"`
	UnregisteredRequests int           `json:"unregisteredRequests"`
	AverageResponseTime  time.Duration `json:"averageResponseTime"`
	ErrorRate            float64       `json:"errorRate"`
	RequestsPerSecond    float64       `json:"requestsPerSecond"`
	TopSlowEndpoints     []PathTiming  `json:"topSlowEndpoints"`
	RecentErrorCodes     map[int]int   `json:"recentErrorCodes"`
}

// Summary aggregates the recorded calls. It includes the 5 slowest
// registered paths and a count of the status codes among the 10 most
// recent failed calls.
func (m *Monitor) Summary() Summary {
	calls := m.calls.Snapshot()

	var registered int
	for _, c := range calls {
		if !c.Unregistered {
			registered++
		}
	}

	return Summary{
		TotalRequests:        len(calls),
		RegisteredRequests:   registered,
		UnregisteredRequests: len(calls) - registered,
		AverageResponseTime:  average(calls),
		ErrorRate:            m.ErrorRate(),
		RequestsPerSecond:    m.RequestsPerSecond(),
		TopSlowEndpoints:     m.topSlow(5),
		RecentErrorCodes:     m.recentErrorCodes(10),
	}
}

func (m *Monitor) topSlow(n int) []PathTiming {
	byPath := m.ResponseTimeByPath()

	out := make([]PathTiming, 0, len(byPath))
	for path, avg := range byPath {
		out = append(out, PathTiming{Path: path, Average: avg})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average == out[j].Average {
			return out[i].Path < out[j].Path
		}
		return out[i].Average > out[j].Average
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (m *Monitor) recentErrorCodes(n int) map[int]int {
	failed := m.recent(n, func(c Call) bool { return c.StatusCode >= 400 })

	out := make(map[int]int)
	for _, c := range failed {
		out[c.StatusCode]++
	}
	return out
}

func (m *Monitor) registeredByPath() map[string][]Call {
	out := make(map[string][]Call)
	for _, c := range m.calls.Snapshot() {
		if c.Unregistered {
			continue
		}
		out[c.Path] = append(out[c.Path], c)
	}
	return out
}

func average(calls []Call) time.Duration {
	if len(calls) == 0 {
		return 0
	}

	var total time.Duration
	for _, c := range calls {
		total += c.Duration
	}
	return total / time.Duration(len(calls))
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
