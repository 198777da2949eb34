// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/z5labs/localrest/internal/try"

	"github.com/stretchr/testify/assert"
)

// pumpUntil drives the main loop from the test goroutine until done is closed.
func pumpUntil(d *Dispatcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			d.Pump(context.Background())
			return
		default:
			d.Pump(context.Background())
			time.Sleep(time.Millisecond)
		}
	}
}

func TestDispatcher_Invoke(t *testing.T) {
	t.Run("will run the work on the main loop exactly once", func(t *testing.T) {
		t.Run("if it is invoked from another goroutine", func(t *testing.T) {
			d := New()

			var calls atomic.Int32
			var onMain atomic.Bool
			var err error
			done := make(chan struct{})
			go func() {
				defer close(done)
				err = d.Invoke(context.Background(), func(ctx context.Context) error {
					calls.Add(1)
					onMain.Store(d.OnMain(ctx))
					return nil
				})
			}()

			pumpUntil(d, done)

			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, int32(1), calls.Load()) {
				return
			}
			if !assert.True(t, onMain.Load()) {
				return
			}
		})
	})

	t.Run("will release the caller with a PanicError", func(t *testing.T) {
		t.Run("if the work panics", func(t *testing.T) {
			d := New()

			var err error
			done := make(chan struct{})
			go func() {
				defer close(done)
				err = d.Invoke(context.Background(), func(ctx context.Context) error {
					panic("boom")
				})
			}()

			pumpUntil(d, done)

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "boom", perr.Value) {
				return
			}
		})
	})

	t.Run("will return the work error", func(t *testing.T) {
		d := New()
		workErr := errors.New("work failed")

		var err error
		done := make(chan struct{})
		go func() {
			defer close(done)
			err = d.Invoke(context.Background(), func(ctx context.Context) error {
				return workErr
			})
		}()

		pumpUntil(d, done)

		if !assert.Equal(t, workErr, err) {
			return
		}
	})

	t.Run("will return ErrTimeout and still run the work later", func(t *testing.T) {
		t.Run("if the main loop does not pump in time", func(t *testing.T) {
			d := New(Timeout(20 * time.Millisecond))

			var calls atomic.Int32
			err := d.Invoke(context.Background(), func(ctx context.Context) error {
				calls.Add(1)
				return nil
			})
			if !assert.ErrorIs(t, err, ErrTimeout) {
				return
			}
			if !assert.Equal(t, int32(0), calls.Load()) {
				return
			}

			n := d.Pump(context.Background())
			if !assert.Equal(t, 1, n) {
				return
			}
			if !assert.Equal(t, int32(1), calls.Load()) {
				return
			}
		})
	})

	t.Run("will return the context error", func(t *testing.T) {
		t.Run("if the caller context is cancelled while waiting", func(t *testing.T) {
			d := New()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := d.Invoke(ctx, func(ctx context.Context) error {
				return nil
			})
			if !assert.ErrorIs(t, err, context.Canceled) {
				return
			}
		})
	})

	t.Run("will run inline", func(t *testing.T) {
		t.Run("if it is invoked from the main loop", func(t *testing.T) {
			d := New(Timeout(time.Second))

			var inner atomic.Bool
			var innerErr error
			done := make(chan struct{})
			go func() {
				defer close(done)
				d.Invoke(context.Background(), func(ctx context.Context) error {
					innerErr = d.Invoke(ctx, func(ctx context.Context) error {
						inner.Store(true)
						return nil
					})
					return nil
				})
			}()

			pumpUntil(d, done)

			if !assert.Nil(t, innerErr) {
				return
			}
			if !assert.True(t, inner.Load()) {
				return
			}
		})
	})
}

func TestCall(t *testing.T) {
	t.Run("will return the produced value", func(t *testing.T) {
		d := New()

		var v int
		var err error
		done := make(chan struct{})
		go func() {
			defer close(done)
			v, err = Call(context.Background(), d, func(ctx context.Context) (int, error) {
				return 42, nil
			})
		}()

		pumpUntil(d, done)

		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, 42, v) {
			return
		}
	})

	t.Run("will return the zero value", func(t *testing.T) {
		t.Run("if the work fails", func(t *testing.T) {
			d := New()
			workErr := errors.New("nope")

			var v string
			var err error
			done := make(chan struct{})
			go func() {
				defer close(done)
				v, err = Call(context.Background(), d, func(ctx context.Context) (string, error) {
					return "partial", workErr
				})
			}()

			pumpUntil(d, done)

			if !assert.ErrorIs(t, err, workErr) {
				return
			}
			if !assert.Equal(t, "", v) {
				return
			}
		})
	})
}

func TestDispatcher_Enqueue(t *testing.T) {
	t.Run("will run items in enqueue order", func(t *testing.T) {
		d := New()

		var mu sync.Mutex
		var order []int
		for i := range 10 {
			err := d.Enqueue(context.Background(), func(ctx context.Context) {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
			})
			if !assert.Nil(t, err) {
				return
			}
		}

		n := d.Pump(context.Background())
		if !assert.Equal(t, 10, n) {
			return
		}
		if !assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order) {
			return
		}
	})

	t.Run("will return ErrQueueFull", func(t *testing.T) {
		t.Run("if the queue has no room", func(t *testing.T) {
			d := New(QueueSize(1))

			err := d.Enqueue(context.Background(), func(ctx context.Context) {})
			if !assert.Nil(t, err) {
				return
			}

			err = d.Enqueue(context.Background(), func(ctx context.Context) {})
			if !assert.ErrorIs(t, err, ErrQueueFull) {
				return
			}
		})
	})

	t.Run("will keep pumping", func(t *testing.T) {
		t.Run("if an item panics", func(t *testing.T) {
			d := New()

			var ran atomic.Bool
			d.Enqueue(context.Background(), func(ctx context.Context) {
				panic("boom")
			})
			d.Enqueue(context.Background(), func(ctx context.Context) {
				ran.Store(true)
			})

			n := d.Pump(context.Background())
			if !assert.Equal(t, 2, n) {
				return
			}
			if !assert.True(t, ran.Load()) {
				return
			}
		})
	})
}

func TestDispatcher_Pump(t *testing.T) {
	t.Run("will return zero", func(t *testing.T) {
		t.Run("if called reentrantly from the main loop", func(t *testing.T) {
			d := New()

			nested := -1
			d.Enqueue(context.Background(), func(ctx context.Context) {
				nested = d.Pump(ctx)
			})
			d.Enqueue(context.Background(), func(ctx context.Context) {})

			n := d.Pump(context.Background())
			if !assert.Equal(t, 2, n) {
				return
			}
			if !assert.Equal(t, 0, nested) {
				return
			}
		})
	})
}

func TestDispatcher_Run(t *testing.T) {
	t.Run("will pump until the context is cancelled", func(t *testing.T) {
		d := New()
		ctx, cancel := context.WithCancel(context.Background())

		runErr := make(chan error, 1)
		go func() {
			runErr <- d.Run(ctx, time.Millisecond)
		}()

		v, err := Call(context.Background(), d, func(ctx context.Context) (string, error) {
			return "ok", nil
		})
		cancel()

		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, "ok", v) {
			return
		}
		if !assert.Nil(t, <-runErr) {
			return
		}
	})
}
