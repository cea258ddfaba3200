package server

import (
	"context"

	"github.com/tirr-c/ruwuma"
)

// Info describes the endpoint a request was routed to.
type Info struct {
	// Endpoint is the endpoint name, e.g. "get_profile".
	Endpoint string
	// Method is the HTTP method of the endpoint.
	Method string
	// Pattern is the path template the request matched.
	Pattern ruwuma.PathTemplate
}

// HandlerFunc represents the next handler in an interceptor chain.
type HandlerFunc func(ctx context.Context, req any) (res any, err error)

// UnaryInterceptor wraps handler execution.
//
// The handler parameter is the next handler in the chain. Interceptors can
// inspect or replace the request before calling handler, inspect or replace
// the response afterwards, or short-circuit by returning an error without
// calling handler. req and res are pointers to the typed request and
// response structs.
type UnaryInterceptor func(ctx context.Context, req any, info *Info, handler HandlerFunc) (res any, err error)

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []UnaryInterceptor) UnaryInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, req any, info *Info, handler HandlerFunc) (any, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			next := chain
			chain = func(ctx context.Context, req any) (any, error) {
				return current(ctx, req, info, next)
			}
		}
		return chain(ctx, req)
	}
}
