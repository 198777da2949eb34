// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle collects actions to execute before and after a
// host application runs.
package lifecycle

import (
	"context"
	"errors"
	"sync"
)

// Hook represents functionality that needs to be performed
// at a specific "time" relative to the execution of an application.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] that runs every given [Hook] in order.
// A failing hook does not stop the rest from running.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Context collects hooks while an application is being built.
// It is safe for concurrent use.
type Context struct {
	mu       sync.Mutex
	preRuns  multiHook
	postRuns multiHook
}

// OnPreRun registers a [Hook] executed right before the application runs.
// A failing pre run hook prevents the application from running.
func (c *Context) OnPreRun(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preRuns = append(c.preRuns, hook)
}

// OnPostRun registers a [Hook] executed after the application returns.
// Post run hooks execute in reverse registration order, so resources
// are released in the opposite order they were acquired.
func (c *Context) OnPostRun(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postRuns = append(c.postRuns, hook)
}

// PreRun returns every registered pre run [Hook] as one.
func (c *Context) PreRun() Hook {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(multiHook(nil), c.preRuns...)
}

// PostRun returns every registered post run [Hook] as one.
func (c *Context) PostRun() Hook {
	c.mu.Lock()
	defer c.mu.Unlock()
	hooks := make(multiHook, len(c.postRuns))
	for i, h := range c.postRuns {
		hooks[len(hooks)-1-i] = h
	}
	return hooks
}

type key struct{}

var contextKey = &key{}

// NewContext returns a new [context.Context] containing the lifecycle [Context].
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey, c)
}

// FromContext tries to extract a lifecycle [Context] from the given [context.Context].
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(contextKey).(*Context)
	return lc, ok
}
