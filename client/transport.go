// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrStatusCode is counted as a failure by the circuit breaker when a
// response carries one of the tripping status codes.
var ErrStatusCode = errors.New("status code error")

type circuitOptions struct {
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

type retryOptions struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// NotConnError reports whether err is something other than a
// connection level failure.
func NotConnError(err error) bool {
	var (
		addrErr *net.AddrError
		dnsErr  *net.DNSError
		opErr   *net.OpError
	)
	switch {
	case errors.As(err, &addrErr), errors.As(err, &dnsErr), errors.As(err, &opErr):
		return false
	default:
		return true
	}
}

// NotStatusCodeError
func NotStatusCodeError(err error) bool {
	return !errors.Is(err, ErrStatusCode)
}

func isSuccessful(err error) bool {
	return err == nil || (NotStatusCodeError(err) && NotConnError(err))
}

func newCircuitRoundTripper(name string, rt http.RoundTripper, log *zap.Logger, co *circuitOptions) *circuitRoundTripper {
	if len(co.statusCodes) == 0 {
		co.statusCodes = append(
			co.statusCodes,
			http.StatusBadGateway,         // 502
			http.StatusServiceUnavailable, // 503
			http.StatusGatewayTimeout,     // 504
		)
	}
	codes := make(map[int]struct{}, len(co.statusCodes))
	for _, code := range co.statusCodes {
		codes[code] = struct{}{}
	}

	log = log.Named(name)

	return &circuitRoundTripper{
		base: rt,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: co.maxRequests,
			Interval:    co.interval,
			Timeout:     co.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= co.tripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					log.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					log.Warn("circuit is now half open and letting some requests through", zap.Uint32("max_requests_allowed_through", co.maxRequests))
				case gobreaker.StateClosed:
					log.Info("circuit has been closed")
				}
			},
			IsSuccessful: isSuccessful,
		}),
		codes: codes,
	}
}

type circuitRoundTripper struct {
	base  http.RoundTripper
	cb    *gobreaker.CircuitBreaker
	codes map[int]struct{}
}

// statusCodeError keeps the response so the caller still sees it after
// the breaker counted it as a failure.
type statusCodeError struct {
	resp *http.Response
}

func (e statusCodeError) Error() string { return ErrStatusCode.Error() }

func (e statusCodeError) Unwrap() error { return ErrStatusCode }

func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if _, ok := rt.codes[resp.StatusCode]; ok {
			return nil, statusCodeError{resp: resp}
		}
		return resp, nil
	})
	var sce statusCodeError
	if errors.As(err, &sce) {
		return sce.resp, nil
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}

// checkRetry never retries a handler failure since the handler may
// already have mutated host state.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusInternalServerError {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func newHTTPClient(o *options) *http.Client {
	var rt http.RoundTripper = o.transport
	if o.co != nil {
		rt = newCircuitRoundTripper(o.name, rt, o.logger, o.co)
	}
	c := &http.Client{
		Timeout:   o.timeout,
		Transport: rt,
	}
	if o.ro == nil {
		return c
	}

	log := o.logger
	rc := retryablehttp.Client{
		HTTPClient:   c,
		Logger:       nil,
		RetryWaitMin: o.ro.waitMin,
		RetryWaitMax: o.ro.waitMax,
		RetryMax:     o.ro.maxRetries,
		RequestLogHook: func(l retryablehttp.Logger, req *http.Request, i int) {
			log.Debug("sending http request", zap.String("method", req.Method), zap.String("url", req.URL.Redacted()), zap.Int("request_attempt_count", i))
		},
		ResponseLogHook: func(l retryablehttp.Logger, resp *http.Response) {
			log.Debug("received http response", zap.String("url", resp.Request.URL.Redacted()), zap.Int("http_status_code", resp.StatusCode))
		},
		CheckRetry:   checkRetry,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}
