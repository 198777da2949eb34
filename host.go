// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package localrest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/z5labs/localrest/dispatch"
	"github.com/z5labs/localrest/metrics"
	"github.com/z5labs/localrest/pkg/health"
	"github.com/z5labs/localrest/pkg/maskslog"
	"github.com/z5labs/localrest/pkg/otelconfig"
	"github.com/z5labs/localrest/pkg/otelslog"
	"github.com/z5labs/localrest/pkg/slogfield"
	"github.com/z5labs/localrest/requestlog"
	"github.com/z5labs/localrest/server"
)

// ServerConfig
type ServerConfig struct {
	URL             string        `config:"url"`
	Token           string        `config:"token"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout"`
	MaxBodyBytes    int64         `config:"max_body_bytes"`
}

// DispatchConfig
type DispatchConfig struct {
	Timeout   time.Duration `config:"timeout"`
	QueueSize int           `config:"queue_size"`
	Tick      time.Duration `config:"tick"`
}

// LogConfig
type LogConfig struct {
	Level  slog.Level `config:"level"`
	Format string     `config:"format"`
}

// RequestLogConfig
type RequestLogConfig struct {
	Capacity      int `config:"capacity"`
	MaxBodyLength int `config:"max_body_length"`
}

// MetricsConfig
type MetricsConfig struct {
	Capacity int `config:"capacity"`
}

// Config is the configuration of a [Host]. Host applications embed it
// in their own config type.
type Config struct {
	Server     ServerConfig      `config:"server"`
	Dispatch   DispatchConfig    `config:"dispatch"`
	Log        LogConfig         `config:"log"`
	RequestLog RequestLogConfig  `config:"request_log"`
	Metrics    MetricsConfig     `config:"metrics"`
	OTel       otelconfig.Config `config:"otel"`
}

// InitializeOTel implements the appbuilder.OTelInitializer interface.
func (cfg Config) InitializeOTel(ctx context.Context) error {
	return cfg.OTel.InitializeOTel(ctx)
}

// Host owns the components which expose a host application over HTTP.
type Host struct {
	Log        *slog.Logger
	Dispatcher *dispatch.Dispatcher
	RequestLog *requestlog.Store
	Metrics    *metrics.Monitor
	Server     *server.Server

	url      string
	token    string
	tick     time.Duration
	mainLoop health.Flag
}

// HostOption
type HostOption func(*hostOptions)

type hostOptions struct {
	out io.Writer
}

// LogOutput sets where the host logs are written. Defaults to stderr.
func LogOutput(w io.Writer) HostOption {
	return func(o *hostOptions) {
		o.out = w
	}
}

// NewHost wires a [Host] from cfg. An empty token is replaced by a
// generated one.
func NewHost(cfg Config, opts ...HostOption) *Host {
	o := &hostOptions{out: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	handler := newLogHandler(o.out, cfg.Log)
	log := slog.New(handler)

	token := cfg.Server.Token
	if token == "" {
		token = server.GenerateToken()
		log.Info("generated access token, read it from Host.Token")
	}

	d := dispatch.New(
		dispatch.LogHandler(handler),
		dispatch.Timeout(cfg.Dispatch.Timeout),
		dispatch.QueueSize(cfg.Dispatch.QueueSize),
	)
	reqLog := requestlog.New(
		requestlog.LogHandler(handler),
		requestlog.Capacity(cfg.RequestLog.Capacity),
		requestlog.MaxBodyLength(cfg.RequestLog.MaxBodyLength),
	)
	mon := metrics.New(metrics.Capacity(cfg.Metrics.Capacity))

	srvOpts := []server.Option{
		server.LogHandler(handler),
		server.RequestLog(reqLog),
		server.Metrics(mon),
	}
	if cfg.Server.ShutdownTimeout > 0 {
		srvOpts = append(srvOpts, server.ShutdownTimeout(cfg.Server.ShutdownTimeout))
	}
	if cfg.Server.MaxBodyBytes != 0 {
		srvOpts = append(srvOpts, server.MaxBodyBytes(cfg.Server.MaxBodyBytes))
	}
	if cfg.Dispatch.Timeout > 0 {
		srvOpts = append(srvOpts, server.WriteTimeout(cfg.Dispatch.Timeout+30*time.Second))
	}

	return &Host{
		Log:        log,
		Dispatcher: d,
		RequestLog: reqLog,
		Metrics:    mon,
		Server:     server.New(d, srvOpts...),
		url:        cfg.Server.URL,
		token:      token,
		tick:       cfg.Dispatch.Tick,
	}
}

func newLogHandler(w io.Writer, cfg LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource: cfg.Level <= slog.LevelDebug,
		Level:     cfg.Level,
	}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	}
	return otelslog.NewHandler(maskslog.NewHandler(h, maskslog.Credentials()))
}

// Token is the access token the server requires.
func (h *Host) Token() string {
	return h.token
}

// URL is the address the server listens on once serving, or the
// configured one before that.
func (h *Host) URL() string {
	if u := h.Server.URL(); u != "" {
		return u
	}
	return h.url
}

// Serve starts the server and blocks until ctx is cancelled or the
// server stops on its own. The server is always stopped before Serve
// returns.
func (h *Host) Serve(ctx context.Context) error {
	err := h.Server.Start(ctx, h.url, h.token)
	if err != nil {
		h.Log.ErrorContext(ctx, "failed to start server", slogfield.String("url", h.url), slogfield.Error(err))
		return err
	}
	h.Log.InfoContext(ctx, "serving routes", slogfield.String("url", h.Server.URL()), slogfield.Int("routes", len(h.Server.Routes())))

	select {
	case <-ctx.Done():
	case <-h.Server.Done():
	}

	err = h.Server.Stop(context.WithoutCancel(ctx))
	if err != nil {
		h.Log.ErrorContext(ctx, "failed to stop server", slogfield.Error(err))
		return err
	}
	h.Log.InfoContext(ctx, "server stopped")
	return nil
}

// MainLoop pumps the dispatcher every configured tick until ctx is
// cancelled. Hosts without their own frame loop run it on the goroutine
// owning their state.
func (h *Host) MainLoop(ctx context.Context) error {
	tick := h.tick
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}

	h.mainLoop.Set(true)
	defer h.mainLoop.Set(false)
	return h.Dispatcher.Run(ctx, tick)
}

// Ready reports whether the server accepts requests and the main loop
// is draining them.
func (h *Host) Ready(ctx context.Context) bool {
	serving := health.MetricFunc(func(context.Context) bool {
		return h.Server.Running()
	})
	return health.And(serving, &h.mainLoop).Healthy(ctx)
}
