// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package route defines registered endpoints and the registry holding them.
package route

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/z5labs/localrest/param"
)

// Handler invokes an endpoint with resolved arguments and writes its
// outcome into buf. A returned error is reported to the client as a 500.
type Handler interface {
	Handle(ctx context.Context, args []any, buf *ResponseBuffer) error
}

// HandlerFunc is a func implementation of [Handler].
type HandlerFunc func(ctx context.Context, args []any, buf *ResponseBuffer) error

// Handle implements the [Handler] interface.
func (f HandlerFunc) Handle(ctx context.Context, args []any, buf *ResponseBuffer) error {
	return f(ctx, args, buf)
}

// Route binds a verb and exact path to a handler.
type Route struct {
	Method     string
	Path       string
	Handler    Handler
	Signature  param.Signature
	Owner      string
	MethodName string
}

// Key returns the registry key of the route.
func (r Route) Key() string {
	return Key(r.Method, r.Path)
}

// Info describes the route for listings.
func (r Route) Info() Info {
	return Info{
		Method:  r.Method,
		Path:    r.Path,
		Handler: r.Owner + "." + r.MethodName,
	}
}

// Key joins a verb and path into a registry key. Verbs are case sensitive.
func Key(method, path string) string {
	return method + " " + path
}

// Info is the public description of a registered route.
type Info struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// Registrar accepts route registrations. Generated code registers its
// endpoints through this interface.
type Registrar interface {
	RegisterRoute(method, path string, h Handler, sig param.Signature, owner, methodName string)
}

// Registry is a concurrency safe table of routes keyed by verb and path.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]Route
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		routes: make(map[string]Route),
	}
}

// RegisterRoute implements the [Registrar] interface. Registering an
// existing verb and path replaces the previous route.
func (r *Registry) RegisterRoute(method, path string, h Handler, sig param.Signature, owner, methodName string) {
	r.Register(Route{
		Method:     method,
		Path:       path,
		Handler:    h,
		Signature:  slices.Clone(sig),
		Owner:      owner,
		MethodName: methodName,
	})
}

// Register adds rt, replacing any route with the same key.
func (r *Registry) Register(rt Route) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[rt.Key()] = rt
}

// UnregisterRoute removes the route and reports whether it existed.
func (r *Registry) UnregisterRoute(method, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key(method, path)
	_, ok := r.routes[key]
	delete(r.routes, key)
	return ok
}

// Lookup returns the route registered for the exact verb and path.
func (r *Registry) Lookup(method, path string) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.routes[Key(method, path)]
	return rt, ok
}

// Len returns the number of registered routes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.routes)
}

// Routes lists every route sorted by path and then verb.
func (r *Registry) Routes() []Info {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.routes))
	for _, rt := range r.routes {
		infos = append(infos, rt.Info())
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b Info) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return infos
}
