// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package client calls a running localrest server from another process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/z5labs/localrest/route"
	"github.com/z5labs/localrest/server"

	"go.uber.org/zap"
)

type options struct {
	name      string
	logger    *zap.Logger
	timeout   time.Duration
	transport http.RoundTripper

	co *circuitOptions
	ro *retryOptions
}

// Option configures a Client.
type Option func(*options)

// Name is used for the circuit breaker and as the logger name.
func Name(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Logger
func Logger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Timeout bounds every request including retries.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Transport replaces http.DefaultTransport.
func Transport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

func withCircuitOption(f func(*circuitOptions)) Option {
	return func(o *options) {
		if o.co == nil {
			o.co = &circuitOptions{
				maxRequests: 1,
				timeout:     30 * time.Second,
				tripCount:   5,
			}
		}
		f(o.co)
	}
}

// TripAfter opens the circuit after n consecutive failures.
func TripAfter(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.tripCount = n
	})
}

// OpenStateTimeout is how long the circuit stays open before letting
// requests through again.
func OpenStateTimeout(d time.Duration) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.timeout = d
	})
}

// HalfOpenRequests
func HalfOpenRequests(n uint32) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.maxRequests = n
	})
}

// TripOnStatusCode registers a status code which counts as a failure.
// Defaults to 502, 503 and 504.
func TripOnStatusCode(code int) Option {
	return withCircuitOption(func(co *circuitOptions) {
		co.statusCodes = append(co.statusCodes, code)
	})
}

func withRetryOption(f func(*retryOptions)) Option {
	return func(o *options) {
		if o.ro == nil {
			o.ro = &retryOptions{
				maxRetries: 2,
				waitMin:    100 * time.Millisecond,
				waitMax:    2 * time.Second,
			}
		}
		f(o.ro)
	}
}

// MaxRetries enables retries of connection failures.
func MaxRetries(n int) Option {
	return withRetryOption(func(ro *retryOptions) {
		ro.maxRetries = n
	})
}

// RetryWait bounds the backoff between attempts.
func RetryWait(min, max time.Duration) Option {
	return withRetryOption(func(ro *retryOptions) {
		ro.waitMin = min
		ro.waitMax = max
	})
}

// Client talks to one localrest server.
type Client struct {
	baseURL string
	token   string
	log     *zap.Logger
	http    *http.Client
}

// New returns a Client for the server listening on baseURL. An empty
// token sends no credentials.
func New(baseURL, token string, opts ...Option) *Client {
	o := &options{
		name:      "localrest",
		logger:    zap.NewNop(),
		timeout:   30 * time.Second,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		log:     o.logger.Named(o.name),
		http:    newHTTPClient(o),
	}
}

// Params are the arguments of a route call. Values are formatted with
// fmt for the query string and encoded as is for JSON bodies.
type Params map[string]any

// Response is the raw outcome of a route call.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// UnexpectedStatusError is returned when a listing or status request
// does not succeed.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
}

func (e UnexpectedStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// Call invokes the route registered for method and path. GET and DELETE
// send params in the query string, every other verb as a JSON object.
func (c *Client) Call(ctx context.Context, method, path string, params Params) (*Response, error) {
	method = strings.ToUpper(method)

	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	sendQuery := method == http.MethodGet || method == http.MethodDelete
	if sendQuery {
		u.RawQuery = encodeQuery(u.Query(), params)
	} else if len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

// Routes lists the routes registered on the server.
func (c *Client) Routes(ctx context.Context) ([]route.Info, error) {
	u, err := c.resolve(server.RoutesPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, UnexpectedStatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var listing struct {
		Routes []route.Info `json:"routes"`
	}
	err = resp.JSON(&listing)
	if err != nil {
		return nil, err
	}
	return listing.Routes, nil
}

// Status describes whether a server answered the route listing.
type Status struct {
	Reachable bool
	Routes    int
	Latency   time.Duration
	Error     string
}

// Status probes the server. Failures are reported in the returned
// Status rather than as an error.
func (c *Client) Status(ctx context.Context) Status {
	start := time.Now()
	routes, err := c.Routes(ctx)
	latency := time.Since(start)
	if err != nil {
		c.log.Warn("server is not reachable", zap.String("url", c.baseURL), zap.Error(err))
		return Status{Latency: latency, Error: err.Error()}
	}
	return Status{
		Reachable: true,
		Routes:    len(routes),
		Latency:   latency,
	}
}

func (c *Client) resolve(path string) (*url.URL, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", c.baseURL)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(ref), nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed", zap.String("method", req.Method), zap.String("url", req.URL.Redacted()), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	out := &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        b,
		Duration:    time.Since(start),
	}
	c.log.Debug(
		"received response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("http_status_code", out.StatusCode),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

func encodeQuery(q url.Values, params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := params[k]
		if v == nil {
			continue
		}
		q.Set(k, fmt.Sprint(v))
	}
	return q.Encode()
}
