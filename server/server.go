// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server provides the embedded HTTP listener which authenticates
// requests, resolves their parameters and invokes registered routes on the
// host's main execution context.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/z5labs/localrest/internal/fixedpool"
	"github.com/z5labs/localrest/internal/portcheck"
	"github.com/z5labs/localrest/internal/try"
	"github.com/z5labs/localrest/param"
	"github.com/z5labs/localrest/pkg/noop"
	"github.com/z5labs/localrest/pkg/slogfield"
	"github.com/z5labs/localrest/route"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Invoker runs route handlers on the host's main execution context.
// [dispatch.Dispatcher] implements it.
type Invoker interface {
	Invoke(ctx context.Context, f func(context.Context) error) error
}

// LogSink receives the request history of the server.
type LogSink interface {
	LogRequest(id, method, url, clientIP string, headers map[string]string, body string, unregistered bool)
	LogResponse(id string, status int, headers map[string]string, body string, d time.Duration, unregistered bool)
	LogError(message string, err error)
}

// MetricsSink receives a sample for every served call.
type MetricsSink interface {
	RecordCall(method, path string, status int, d time.Duration, clientIP string, unregistered bool)
}

// Option configures a Server.
type Option func(*Server)

// LogHandler
func LogHandler(h slog.Handler) Option {
	return func(s *Server) {
		s.log = slog.New(h)
	}
}

// RequestLog sets the sink receiving request, response and error entries.
func RequestLog(sink LogSink) Option {
	return func(s *Server) {
		s.requestLog = sink
	}
}

// Metrics sets the sink receiving call samples.
func Metrics(sink MetricsSink) Option {
	return func(s *Server) {
		s.metrics = sink
	}
}

// Registry shares an existing route registry with the server.
func Registry(r *route.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// TLSConfig is required to serve https URLs.
func TLSConfig(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

// ReadTimeout sets the maximum duration for reading the entire request,
// including the body. The default is 5 seconds.
func ReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = d
	}
}

// ReadHeaderTimeout sets the maximum duration for reading request headers.
// The default is 2 seconds.
func ReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readHeaderTimeout = d
	}
}

// WriteTimeout sets the maximum duration before timing out writes of the
// response. It must exceed the dispatch timeout. The default is 60 seconds.
func WriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// IdleTimeout sets the maximum duration to wait for the next request when
// keep-alives are enabled. The default is 120 seconds.
func IdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// MaxHeaderBytes sets the maximum size of request headers.
// The default is 1048576 bytes (1 MB).
func MaxHeaderBytes(n int) Option {
	return func(s *Server) {
		s.maxHeaderBytes = n
	}
}

// MaxBodyBytes bounds how much of a request body is read.
func MaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// ShutdownTimeout bounds the graceful shutdown performed by Stop before
// open connections are closed. The default is 5 seconds.
func ShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// Server serves the routes of a [route.Registry].
type Server struct {
	invoker    Invoker
	registry   *route.Registry
	log        *slog.Logger
	requestLog LogSink
	metrics    MetricsSink
	tlsConfig  *tls.Config

	readTimeout       time.Duration
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	maxHeaderBytes    int
	maxBodyBytes      int64

	goos   string
	listen func(network, addr string) (net.Listener, error)
	probe  func(ctx context.Context, host string, port int) error

	handler http.Handler

	mu   sync.Mutex
	inst atomic.Pointer[instance]
}

type instance struct {
	url      string
	prefix   string
	token    string
	hostport string
	ls       net.Listener
	srv      *http.Server
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
}

// New returns a stopped Server. A nil invoker runs handlers on the
// goroutine serving the request.
func New(invoker Invoker, opts ...Option) *Server {
	s := &Server{
		invoker:           invoker,
		log:               noop.Logger(),
		requestLog:        nopLog{},
		metrics:           nopMetrics{},
		readTimeout:       5 * time.Second,
		readHeaderTimeout: 2 * time.Second,
		writeTimeout:      60 * time.Second,
		idleTimeout:       120 * time.Second,
		shutdownTimeout:   5 * time.Second,
		maxHeaderBytes:    1 << 20,
		maxBodyBytes:      param.DefaultMaxBodyBytes,
		goos:              runtime.GOOS,
		listen:            net.Listen,
		probe:             portcheck.Check,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.invoker == nil {
		s.invoker = direct{}
	}
	if s.registry == nil {
		s.registry = route.NewRegistry()
	}
	s.handler = otelhttp.NewHandler(
		s,
		"localrest",
		otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
	)
	return s
}

// RegisterRoute implements the [route.Registrar] interface.
// It is safe to call while requests are being served.
func (s *Server) RegisterRoute(method, path string, h route.Handler, sig param.Signature, owner, methodName string) {
	s.registry.RegisterRoute(method, path, h, sig, owner, methodName)
}

// UnregisterRoute removes a route and reports whether it existed.
func (s *Server) UnregisterRoute(method, path string) bool {
	return s.registry.UnregisterRoute(method, path)
}

// Routes lists the registered routes sorted by path and verb.
func (s *Server) Routes() []route.Info {
	return s.registry.Routes()
}

// Start binds the listener described by rawURL and begins serving in the
// background. Requests must present token to reach a route. On failure the
// returned error is a [BindError] and the server stays stopped.
func (s *Server) Start(ctx context.Context, rawURL, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inst.Load() != nil {
		return ErrAlreadyRunning
	}
	if s.goos == "js" || s.goos == "wasip1" {
		return BindError{URL: rawURL, Kind: ErrPlatformUnsupported, Cause: fmt.Errorf("GOOS=%s", s.goos)}
	}

	lu, err := parseListenURL(rawURL, s.tlsConfig != nil)
	if err != nil {
		return BindError{URL: rawURL, Kind: ErrMalformedURL, Cause: err}
	}

	hostport := net.JoinHostPort(lu.host, strconv.Itoa(lu.port))
	if lu.port != 0 {
		if !reserve(hostport, s) {
			return BindError{URL: rawURL, Kind: ErrPrefixConflict}
		}

		err = s.probe(ctx, lu.host, lu.port)
		if err != nil {
			release(hostport, s)
			return BindError{URL: rawURL, Kind: ErrPortInUse, Cause: err}
		}
	}

	ls, err := s.listen("tcp", hostport)
	if err != nil {
		release(hostport, s)
		s.log.ErrorContext(ctx, "failed to listen for connections", slogfield.Error(err))
		return BindError{URL: rawURL, Kind: classifyListenError(err), Cause: err}
	}
	if lu.port == 0 {
		hostport = ls.Addr().String()
		reserve(hostport, s)
		lu.port = ls.Addr().(*net.TCPAddr).Port
	}
	if lu.scheme == "https" {
		ls = tls.NewListener(ls, s.tlsConfig)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	inst := &instance{
		url:      lu.String(),
		prefix:   lu.path,
		token:    token,
		hostport: hostport,
		ls:       ls,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	inst.srv = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readHeaderTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       s.idleTimeout,
		MaxHeaderBytes:    s.maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
		BaseContext: func(net.Listener) context.Context {
			return runCtx
		},
	}

	s.inst.Store(inst)
	go s.run(runCtx, inst)

	s.log.InfoContext(ctx, "started server", slogfield.String("url", inst.url))
	return nil
}

func (s *Server) run(ctx context.Context, inst *instance) {
	defer close(inst.done)
	defer s.detach(inst)

	err := fixedpool.Wait(
		ctx,
		func(ctx context.Context) error {
			err := inst.srv.Serve(inst.ls)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
		func(ctx context.Context) error {
			<-ctx.Done()

			sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()

			err := inst.srv.Shutdown(sctx)
			if err == nil {
				return nil
			}
			s.log.Warn("graceful shutdown did not finish in time", slogfield.Error(err))
			return inst.srv.Close()
		},
	)
	if err != nil {
		s.log.Error("server stopped unexpectedly", slogfield.Error(err))
		inst.err = err
	}
}

func (s *Server) detach(inst *instance) {
	inst.cancel()
	if s.inst.CompareAndSwap(inst, nil) {
		release(inst.hostport, s)
	}
}

// Stop shuts the server down. In flight requests see their context
// cancelled and open connections are closed once ShutdownTimeout elapses
// or ctx ends. Stopping a stopped server returns nil.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.inst.Load()
	if inst == nil {
		return nil
	}

	inst.cancel()
	select {
	case <-inst.done:
	case <-ctx.Done():
		err := inst.srv.Close()
		if err != nil {
			s.log.WarnContext(ctx, "failed to close server", slogfield.Error(err))
		}
		<-inst.done
	}

	s.log.InfoContext(ctx, "stopped server", slogfield.String("url", inst.url))
	return inst.err
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	return s.inst.Load() != nil
}

// Addr returns the bound address or nil when stopped.
func (s *Server) Addr() net.Addr {
	inst := s.inst.Load()
	if inst == nil {
		return nil
	}
	return inst.ls.Addr()
}

// URL returns the served URL prefix, including the bound port.
func (s *Server) URL() string {
	inst := s.inst.Load()
	if inst == nil {
		return ""
	}
	return inst.url
}

var stoppedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done is closed once the current run of the server ends.
func (s *Server) Done() <-chan struct{} {
	inst := s.inst.Load()
	if inst == nil {
		return stoppedCh
	}
	return inst.done
}

type listenURL struct {
	scheme string
	host   string
	port   int
	path   string
	// display is the host written back into URL.
	display string
}

func (u listenURL) String() string {
	return u.scheme + "://" + net.JoinHostPort(u.display, strconv.Itoa(u.port)) + u.path
}

func parseListenURL(raw string, hasTLS bool) (listenURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return listenURL{}, err
	}

	lu := listenURL{
		scheme: strings.ToLower(u.Scheme),
		host:   u.Hostname(),
		path:   u.Path,
	}
	switch lu.scheme {
	case "http":
		lu.port = 80
	case "https":
		if !hasTLS {
			return listenURL{}, errors.New("https requires a tls config")
		}
		lu.port = 443
	default:
		return listenURL{}, fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return listenURL{}, errors.New("url must not carry a query or fragment")
	}

	lu.display = lu.host
	switch lu.host {
	case "":
		return listenURL{}, errors.New("missing host")
	case "*", "+":
		lu.host = ""
		lu.display = "localhost"
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return listenURL{}, fmt.Errorf("invalid port: %w", err)
		}
		if port != 0 {
			if err := portcheck.ValidatePort(port); err != nil {
				return listenURL{}, err
			}
		}
		lu.port = port
	}

	if lu.path == "" {
		lu.path = "/"
	}
	if !strings.HasSuffix(lu.path, "/") {
		lu.path += "/"
	}
	return lu, nil
}

func classifyListenError(err error) error {
	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, os.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, syscall.EADDRINUSE):
		return ErrPortInUse
	default:
		return ErrListenFailed
	}
}

type direct struct{}

func (direct) Invoke(ctx context.Context, f func(context.Context) error) error {
	return try.Call(func() error {
		return f(ctx)
	})
}

type nopLog struct{}

func (nopLog) LogRequest(string, string, string, string, map[string]string, string, bool) {}

func (nopLog) LogResponse(string, int, map[string]string, string, time.Duration, bool) {}

func (nopLog) LogError(string, error) {}

type nopMetrics struct{}

func (nopMetrics) RecordCall(string, string, int, time.Duration, string, bool) {}
