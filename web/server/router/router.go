// Package router implements a method and path routing table on top of
// http.ServeMux, with prefix groups that share middleware instances, mounted
// subtrees and route introspection.
package router

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.hackfix.me/hello/web/server/middleware"
)

// Layer is a named middleware applied to the routes of a group.
type Layer struct {
	Name       string
	Middleware middleware.Middleware
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method     string
	Path       string
	Middleware []string
}

// Router dispatches requests to the registered routes. Requests for unknown
// paths are answered with 404 Not Found, and requests for known paths with an
// unsupported method with 405 Method Not Allowed.
//
// Routes must be registered before the router starts serving. The first call
// to ServeHTTP freezes the routing table, after which registering a route
// panics.
type Router struct {
	mu     sync.Mutex
	mux    *http.ServeMux
	routes []RouteInfo
	frozen atomic.Bool
}

// New returns a new empty Router.
func New() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Get registers a handler for GET (and HEAD) requests on path.
func (r *Router) Get(path string, h http.Handler) {
	r.handle(http.MethodGet, path, h, nil)
}

// Mount registers a handler for GET requests on every path under prefix. The
// prefix must end with a slash. The handler receives the full request path.
func (r *Router) Mount(prefix string, h http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		panic(fmt.Sprintf("router: mount prefix %q must end with '/'", prefix))
	}
	r.handle(http.MethodGet, prefix, h, nil)
}

// Group returns a group of routes under prefix. The given middleware layers
// are applied to every route of the group in order, and the same middleware
// instances are shared by all of them.
func (r *Router) Group(prefix string, layers ...Layer) *Group {
	return &Group{router: r, prefix: strings.TrimSuffix(prefix, "/"), layers: layers}
}

// Freeze makes the routing table immutable.
func (r *Router) Freeze() {
	r.frozen.Store(true)
}

// Routes returns the registered routes, sorted by path and method.
func (r *Router) Routes() []RouteInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	routes := make([]RouteInfo, len(r.routes))
	for i, ri := range r.routes {
		ri.Middleware = slices.Clone(ri.Middleware)
		routes[i] = ri
	}

	slices.SortFunc(routes, func(a, b RouteInfo) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})

	return routes
}

// ServeHTTP implements the http.Handler interface.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.frozen.Load() {
		r.Freeze()
	}
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handle(method, path string, h http.Handler, layers []Layer) {
	if r.frozen.Load() {
		panic(fmt.Sprintf("router: registering %s %s after the router was frozen", method, path))
	}
	if !strings.HasPrefix(path, "/") {
		panic(fmt.Sprintf("router: path %q must begin with '/'", path))
	}
	if h == nil {
		panic(fmt.Sprintf("router: nil handler for %s %s", method, path))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(layers))
	for i := len(layers) - 1; i >= 0; i-- {
		h = layers[i].Middleware(h)
	}
	for _, l := range layers {
		names = append(names, l.Name)
	}

	// ServeMux panics on conflicting patterns.
	r.mux.Handle(fmt.Sprintf("%s %s", method, exactPattern(path)), h)
	r.routes = append(r.routes, RouteInfo{Method: method, Path: path, Middleware: names})
}

// exactPattern returns a ServeMux pattern that matches path exactly, unless
// it's a subtree pattern ending with a slash. The root path only matches
// itself.
func exactPattern(path string) string {
	if path == "/" {
		return "/{$}"
	}
	return path
}

// Group is a set of routes sharing a path prefix and middleware layers.
type Group struct {
	router *Router
	prefix string
	layers []Layer
}

// Get registers a handler for GET (and HEAD) requests on the group prefix
// followed by path.
func (g *Group) Get(path string, h http.Handler) {
	g.router.handle(http.MethodGet, g.prefix+path, h, g.layers)
}
