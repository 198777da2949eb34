// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package dispatch runs work on a host owned main loop.
//
// Any goroutine may hand work to a [Dispatcher]. The host drains the queue from
// its main goroutine by calling [Dispatcher.Pump] once per tick (or by running
// [Dispatcher.Run]). Work runs strictly in enqueue order, one item at a time.
// Work submitted from code already running on the main loop executes inline.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/localrest/internal/try"
	"github.com/z5labs/localrest/pkg/noop"
	"github.com/z5labs/localrest/pkg/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds how long [Dispatcher.Invoke] waits for the main loop.
const DefaultTimeout = 30 * time.Second

// DefaultQueueSize is the number of items that may wait for the main loop.
const DefaultQueueSize = 1024

// ErrTimeout is returned when the main loop did not finish the work in time.
// The work is not cancelled and may still run later.
var ErrTimeout = errors.New("timed out waiting for the main loop")

// ErrQueueFull is returned by [Dispatcher.Enqueue] when no more work can wait.
var ErrQueueFull = errors.New("main loop queue is full")

// State is the lifecycle stage of a queued item.
type State int32

const (
	Queued State = iota
	Running
	Completed
	Failed
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// Timeout overrides [DefaultTimeout].
func Timeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// QueueSize overrides [DefaultQueueSize].
func QueueSize(n int) Option {
	return func(dp *Dispatcher) {
		if n > 0 {
			dp.queueSize = n
		}
	}
}

// LogHandler sets where failures of enqueued work are logged.
func LogHandler(h slog.Handler) Option {
	return func(dp *Dispatcher) {
		dp.log = slog.New(h)
	}
}

type item struct {
	ctx   context.Context
	run   func(context.Context) error
	state atomic.Int32

	// done is nil for fire-and-forget items
	done chan struct{}
	err  error
}

func (it *item) finish(err error) {
	it.err = err
	if err != nil {
		it.state.Store(int32(Failed))
	} else {
		it.state.Store(int32(Completed))
	}
	if it.done != nil {
		close(it.done)
	}
}

// Dispatcher is a bounded multi producer, single consumer queue of work
// for the host main loop.
type Dispatcher struct {
	log       *slog.Logger
	tracer    trace.Tracer
	timeout   time.Duration
	queueSize int

	queue  chan *item
	pumpMu sync.Mutex
}

// New returns a [Dispatcher] with an empty queue.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:       noop.Logger(),
		tracer:    otel.Tracer("github.com/z5labs/localrest/dispatch"),
		timeout:   DefaultTimeout,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan *item, d.queueSize)
	return d
}

type mainKey struct{}

// OnMain reports whether ctx belongs to work running on this dispatcher's main loop.
func (d *Dispatcher) OnMain(ctx context.Context) bool {
	owner, _ := ctx.Value(mainKey{}).(*Dispatcher)
	return owner == d
}

// Pending returns the number of items waiting for the main loop.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Invoke runs f on the main loop and waits for it to return. It returns the
// error of f, a [try.PanicError] if f panicked, [ErrTimeout] if the main loop
// did not finish f in time, or the context error if ctx ends first.
func (d *Dispatcher) Invoke(ctx context.Context, f func(context.Context) error) error {
	if d.OnMain(ctx) {
		return try.Call(func() error {
			return f(ctx)
		})
	}

	it := &item{
		ctx:  ctx,
		run:  f,
		done: make(chan struct{}),
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case d.queue <- it:
	case <-timer.C:
		d.log.WarnContext(ctx, "main loop queue stayed full", slogfield.Duration("timeout", d.timeout))
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-it.done:
		return it.err
	case <-timer.C:
		d.log.WarnContext(
			ctx,
			"timed out waiting for the main loop",
			slogfield.Duration("timeout", d.timeout),
			slogfield.String("state", State(it.state.Load()).String()),
		)
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call is [Dispatcher.Invoke] for work producing a value.
func Call[T any](ctx context.Context, d *Dispatcher, f func(context.Context) (T, error)) (T, error) {
	var v T
	err := d.Invoke(ctx, func(ctx context.Context) error {
		res, err := f(ctx)
		if err != nil {
			return err
		}
		v = res
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Enqueue schedules f on the main loop without waiting for it. Failures
// and panics inside f are logged.
func (d *Dispatcher) Enqueue(ctx context.Context, f func(context.Context)) error {
	run := func(ctx context.Context) error {
		f(ctx)
		return nil
	}

	if d.OnMain(ctx) {
		err := try.Call(func() error {
			return run(ctx)
		})
		if err != nil {
			d.log.ErrorContext(ctx, "main loop work failed", slogfield.Error(err))
		}
		return nil
	}

	it := &item{
		ctx: ctx,
		run: run,
	}
	select {
	case d.queue <- it:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pump runs queued work until the queue is empty or ctx ends and returns the
// number of items it ran. It must be called from the host main goroutine.
// A Pump call made while another Pump is active returns 0 immediately.
func (d *Dispatcher) Pump(ctx context.Context) int {
	if !d.pumpMu.TryLock() {
		return 0
	}
	defer d.pumpMu.Unlock()

	n := 0
	for ctx.Err() == nil {
		select {
		case it := <-d.queue:
			d.execute(it)
			n++
		default:
			return n
		}
	}
	return n
}

// Run pumps the queue every tick until ctx is cancelled. It is a ready made
// main loop for hosts without their own frame loop.
func (d *Dispatcher) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Pump(ctx)
		}
	}
}

func (d *Dispatcher) execute(it *item) {
	// a caller that gave up must not abort work it already queued
	ctx := context.WithValue(context.WithoutCancel(it.ctx), mainKey{}, d)

	spanCtx, span := d.tracer.Start(ctx, "Dispatcher.execute", trace.WithAttributes(
		attribute.Bool("dispatch.fire_and_forget", it.done == nil),
	))
	defer span.End()

	var err error
	defer func() {
		it.finish(err)
	}()

	it.state.Store(int32(Running))
	err = try.Call(func() error {
		return it.run(spanCtx)
	})
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if it.done == nil {
		d.log.ErrorContext(spanCtx, "main loop work failed", slogfield.Error(err))
	}
}
