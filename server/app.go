// Package server exposes endpoint handlers over HTTP.
//
// Every path template in an endpoint's history is registered on an
// http.ServeMux, so servers answer old and new clients alike:
//
//	app := server.NewApp().WithLogger(logger)
//	app.Register(server.NewHandler(profile.GetProfile, getProfile))
//	http.ListenAndServe(":8008", app.Handler())
package server

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/tirr-c/ruwuma"
)

// App routes wire requests to registered handlers.
// It manages route registration, middleware, interceptors, rate limiting and
// error handling. Use Handler() to get an http.Handler for use with
// http.ListenAndServe.
type App struct {
	mu                 sync.RWMutex
	mux                *http.ServeMux
	patterns           map[string]string
	methods            map[string]bool
	routes             []Route
	errorTransformer   ruwuma.ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maxRequestBodySize uint64
	limiter            *limiterRegistry
}

func NewApp() *App {
	a := &App{
		mux:                http.NewServeMux(),
		patterns:           make(map[string]string),
		methods:            make(map[string]bool),
		maxRequestBodySize: 1 << 20, // 1MB default
	}
	a.mux.HandleFunc("/", a.unrecognized)
	return a
}

// WithErrorTransformer adds a custom error transformer.
// It returns the app for chaining.
func (a *App) WithErrorTransformer(fn ruwuma.ErrorTransformer) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors enables masking of M_UNKNOWN error messages.
// The original error is still logged and visible to interceptors.
func (a *App) WithMaskInternalErrors() *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maskInternalErrors = true
	return a
}

// WithUnaryInterceptor adds a global interceptor.
// Global interceptors run before handler interceptors, in the order they
// were added.
func (a *App) WithUnaryInterceptor(i UnaryInterceptor) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithMiddleware adds an HTTP middleware to wrap the app.
// Middleware is applied in the order added (first added is outermost).
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets a custom logger for the app.
// If not set, slog.Default() will be used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger = logger
	return a
}

// WithMaxRequestBodySize sets the default maximum request body size for all handlers.
// Individual handlers can override this with Handler.WithMaxRequestBodySize.
// A value of 0 means no limit. Default is 1MB (1 << 20).
func (a *App) WithMaxRequestBodySize(size uint64) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maxRequestBodySize = size
	return a
}

// WithRateLimit enforces a per-client token bucket on endpoints whose
// metadata is marked rate limited. Clients are told how long to wait with
// M_LIMIT_EXCEEDED and retry_after_ms.
func (a *App) WithRateLimit(limit rate.Limit, burst int) *App {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limiter = newLimiterRegistry(limit, burst)
	return a
}

func (a *App) getLogger() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

func (a *App) config() *handlerConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &handlerConfig{
		errorTransformer:   a.errorTransformer,
		maskInternalErrors: a.maskInternalErrors,
		interceptors:       a.interceptors,
		logger:             a.getLogger(),
		maxRequestBodySize: a.maxRequestBodySize,
		limiter:            a.limiter,
	}
}

// Handler returns an http.Handler for use with http.ListenAndServe or other
// HTTP servers. The returned handler includes all configured middleware.
func (a *App) Handler() http.Handler {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	// Apply middleware in reverse order so first added is outermost
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// Register adds routes for every path template of each endpoint's history.
// When the last path field of an endpoint is optional, the path without it
// is routed too. A pattern that is already taken is skipped with a warning;
// an endpoint none of whose templates could be routed is left out of
// Endpoints.
func (a *App) Register(routes ...Route) *App {
	for _, rt := range routes {
		d := rt.Endpoint()
		md := d.Metadata()
		trailingOptional := d.Fields().TrailingOptional()
		routed := false
		for _, tmpl := range md.History.Templates() {
			segs := tmpl.Segments()
			if a.handle(rt, md.Method, tmpl, segs, false) {
				routed = true
			}
			if trailingOptional && tmpl.EndsWithParam() && len(segs) > 1 {
				// Without the last segment, with or without its slash.
				a.handle(rt, md.Method, tmpl, segs[:len(segs)-1], false)
				a.handle(rt, md.Method, tmpl, segs[:len(segs)-1], true)
			}
		}
		if !routed {
			continue
		}
		a.mu.Lock()
		a.routes = append(a.routes, rt)
		a.methods[md.Method] = true
		a.mu.Unlock()
	}
	return a
}

// Endpoints lists the registered endpoints in registration order.
func (a *App) Endpoints() []ruwuma.Descriptor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]ruwuma.Descriptor, len(a.routes))
	for i, rt := range a.routes {
		out[i] = rt.Endpoint()
	}
	return out
}

// handle routes segs to rt. With emptyTail the pattern also takes a trailing
// slash, which stands for one more, empty, argument.
func (a *App) handle(rt Route, method string, tmpl ruwuma.PathTemplate, segs []ruwuma.Segment, emptyTail bool) bool {
	pattern := method + " " + muxPath(segs)
	if emptyTail {
		pattern += "/{$}"
	}
	name := rt.Endpoint().Name()

	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, exists := a.patterns[pattern]; exists {
		a.getLogger().Warn("duplicate route registration",
			slog.String("pattern", pattern),
			slog.String("endpoint", name),
			slog.String("registered_by", prev))
		return false
	}
	info := &Info{Endpoint: name, Method: method, Pattern: tmpl}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()
		if emptyTail {
			path = strings.TrimSuffix(path, "/")
		}
		args, ok := pathArgs(segs, path)
		if !ok {
			a.unrecognized(w, r)
			return
		}
		if emptyTail {
			args = append(args, "")
		}
		rt.serve(w, r, info, args, a.config())
	})
	if err := muxHandle(a.mux, pattern, h); err != nil {
		a.getLogger().Warn("route conflicts with an existing registration",
			slog.String("pattern", pattern),
			slog.String("endpoint", name),
			slog.Any("error", err))
		return false
	}
	a.patterns[pattern] = name
	return true
}

// serveHTTP handles incoming requests (internal, called via Handler()).
func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			cfg := a.config()
			cfg.logger.Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			handleError(r.Context(), w, ruwuma.Errorf(ruwuma.CodeUnknown, "internal server error (panic): %v", rec), cfg)
		}
	}()
	a.mux.ServeHTTP(w, r)
}

// unrecognized answers requests no route takes: 405 when the path exists
// under another method, 404 otherwise.
func (a *App) unrecognized(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	methods := slices.Sorted(maps.Keys(a.methods))
	logger := a.getLogger()
	a.mu.RUnlock()

	var allowed []string
	for _, m := range methods {
		if m == r.Method {
			continue
		}
		probe := r.Clone(r.Context())
		probe.Method = m
		if _, pattern := a.mux.Handler(probe); pattern != "" && pattern != "/" {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeError(w, ruwuma.NewError(ruwuma.CodeUnrecognized, "Unrecognized request").WithStatus(http.StatusMethodNotAllowed), logger)
		return
	}
	writeError(w, ruwuma.NewError(ruwuma.CodeUnrecognized, "Unrecognized request"), logger)
}

// muxPath renders segs as a ServeMux pattern path. Wildcards are numbered
// since parameter names need not be Go identifiers.
func muxPath(segs []ruwuma.Segment) string {
	if len(segs) == 0 {
		return "/{$}"
	}
	var b strings.Builder
	n := 0
	for _, s := range segs {
		b.WriteByte('/')
		if s.IsParam() {
			fmt.Fprintf(&b, "{p%d}", n)
			n++
			continue
		}
		b.WriteString(s.Literal)
	}
	return b.String()
}

// muxHandle registers h, turning the ServeMux panic on conflicting patterns
// into an error.
func muxHandle(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}

// pathArgs splits an escaped request path along segs and returns the raw
// values at the placeholder positions.
func pathArgs(segs []ruwuma.Segment, escapedPath string) ([]string, bool) {
	parts := strings.Split(strings.TrimPrefix(escapedPath, "/"), "/")
	if len(segs) == 0 {
		return nil, escapedPath == "/"
	}
	if len(parts) != len(segs) {
		return nil, false
	}
	var args []string
	for i, s := range segs {
		if s.IsParam() {
			args = append(args, parts[i])
		}
	}
	return args, true
}
