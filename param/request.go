// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/z5labs/localrest/internal/ioutil"
)

// DefaultMaxBodyBytes caps how much of a request body is buffered.
const DefaultMaxBodyBytes = 4 << 20

// RequestOption configures a [Request].
type RequestOption func(*Request)

// MaxBodyBytes overrides [DefaultMaxBodyBytes]. Zero or less means unlimited.
func MaxBodyBytes(n int64) RequestOption {
	return func(r *Request) {
		r.maxBody = n
	}
}

// Request is the per request state shared by authentication, parameter
// resolution and logging. The body is read at most once and cached.
type Request struct {
	Method      string
	Path        string
	URL         string
	RemoteAddr  string
	ContentType string
	Query       url.Values
	Header      http.Header

	src     *http.Request
	maxBody int64

	bodyOnce sync.Once
	bodyText string
	bodyErr  error

	sourceOnce sync.Once
	source     bodySource
}

// NewRequest captures the parts of r needed to serve it.
func NewRequest(r *http.Request, opts ...RequestOption) *Request {
	req := &Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		URL:         r.URL.String(),
		RemoteAddr:  r.RemoteAddr,
		ContentType: r.Header.Get("Content-Type"),
		Query:       r.URL.Query(),
		Header:      r.Header,
		src:         r,
		maxBody:     DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

// Body returns the request body as text. The underlying stream is consumed on
// the first call and every later call returns the cached text.
func (r *Request) Body() string {
	r.readBody()
	return r.bodyText
}

// BodyErr returns the error hit while reading the body, if any.
func (r *Request) BodyErr() error {
	r.readBody()
	return r.bodyErr
}

func (r *Request) readBody() {
	r.bodyOnce.Do(func() {
		if r.src == nil || r.src.Body == nil || r.src.Body == http.NoBody {
			return
		}

		b, err := ioutil.ReadAllAndTryClose(r.src.Body, r.maxBody)
		r.bodyText = string(b)
		r.bodyErr = err
	})
}

// ClientIP returns the remote host without its port.
func (r *Request) ClientIP() string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Token returns the access token presented by the client. The Authorization
// header wins over the token query parameter and an optional "Bearer " prefix
// is stripped.
func (r *Request) Token() string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth != "" {
		const prefix = "bearer "
		if len(auth) >= len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			return auth[len(prefix):]
		}
		return auth
	}
	return r.Query.Get("token")
}

// Headers flattens the request headers, joining repeated values with ", ".
func (r *Request) Headers() map[string]string {
	m := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		m[k] = strings.Join(vs, ", ")
	}
	return m
}

// Lookup returns the raw value of the named parameter. The query string is
// consulted first and only non-empty values count. Otherwise POST, PUT and
// PATCH requests with a body are searched as JSON or form data.
func (r *Request) Lookup(name string) (string, bool) {
	if v := r.Query.Get(name); v != "" {
		return v, true
	}
	if !bodyAllowed(r.Method) {
		return "", false
	}

	r.sourceOnce.Do(func() {
		if r.BodyErr() != nil {
			return
		}
		r.source = detectSource(r.ContentType, r.Body())
	})
	if r.source == nil {
		return "", false
	}
	return r.source.lookup(name)
}

func bodyAllowed(method string) bool {
	return strings.EqualFold(method, http.MethodPost) ||
		strings.EqualFold(method, http.MethodPut) ||
		strings.EqualFold(method, http.MethodPatch)
}
