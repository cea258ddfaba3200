package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tirr-c/ruwuma"
)

// Route is a registered endpoint implementation.
// It is exported so users can pass it to Register, but sealed so they cannot
// implement it; create one with NewHandler.
type Route interface {
	// Endpoint returns the endpoint the route serves.
	Endpoint() ruwuma.Descriptor
	serve(w http.ResponseWriter, r *http.Request, info *Info, args []string, cfg *handlerConfig)
}

// handlerConfig contains configuration passed from App to handlers.
type handlerConfig struct {
	errorTransformer   ruwuma.ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	logger             *slog.Logger
	maxRequestBodySize uint64
	limiter            *limiterRegistry
}

// Handler serves one endpoint with a typed function.
type Handler[Req, Res any] struct {
	endpoint           *ruwuma.Endpoint[Req, Res]
	fn                 func(context.Context, *Req) (*Res, error)
	interceptors       []UnaryInterceptor
	maxRequestBodySize *uint64
}

// NewHandler binds fn to endpoint. A nil response is sent as {}.
func NewHandler[Req, Res any](endpoint *ruwuma.Endpoint[Req, Res], fn func(context.Context, *Req) (*Res, error)) *Handler[Req, Res] {
	return &Handler[Req, Res]{
		endpoint: endpoint,
		fn:       fn,
	}
}

// WithUnaryInterceptor adds an interceptor that runs after the app's
// interceptors.
func (h *Handler[Req, Res]) WithUnaryInterceptor(i UnaryInterceptor) *Handler[Req, Res] {
	h.interceptors = append(h.interceptors, i)
	return h
}

// WithMaxRequestBodySize overrides the app's body size limit for this
// handler. A value of 0 means no limit.
func (h *Handler[Req, Res]) WithMaxRequestBodySize(size uint64) *Handler[Req, Res] {
	h.maxRequestBodySize = &size
	return h
}

// Endpoint returns the endpoint the handler serves.
func (h *Handler[Req, Res]) Endpoint() ruwuma.Descriptor {
	return h.endpoint
}

func (h *Handler[Req, Res]) serve(w http.ResponseWriter, r *http.Request, info *Info, args []string, cfg *handlerConfig) {
	token, _ := ruwuma.BearerToken(r.Header, r.URL.RawQuery)
	ctx := newContext(r.Context(), w, r, info, token)

	if h.endpoint.Metadata().RateLimited && cfg.limiter != nil {
		if wait, ok := cfg.limiter.allow(clientKey(r, token), time.Now()); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			handleError(ctx, w, ruwuma.NewError(ruwuma.CodeLimitExceeded, "Too many requests").
				WithDetail("retry_after_ms", wait.Milliseconds()), cfg)
			return
		}
	}

	body, err := readBody(w, r, h.bodyLimit(cfg))
	if err != nil {
		handleError(ctx, w, err, cfg)
		return
	}

	req, err := h.endpoint.Parse(ruwuma.IncomingRequest{
		Method:   r.Method,
		PathArgs: args,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header,
		Body:     body,
	})
	if err != nil {
		handleError(ctx, w, err, cfg)
		return
	}

	finalHandler := func(ctx context.Context, reqAny any) (any, error) {
		reqTyped, ok := reqAny.(*Req)
		if !ok {
			return nil, ruwuma.Errorf(ruwuma.CodeUnknown, "interceptor replaced the request with %T", reqAny)
		}
		return h.fn(ctx, reqTyped)
	}

	all := make([]UnaryInterceptor, 0, len(cfg.interceptors)+len(h.interceptors))
	all = append(all, cfg.interceptors...)
	all = append(all, h.interceptors...)

	var res any
	if chain := chainInterceptors(all); chain != nil {
		res, err = chain(ctx, req, info, finalHandler)
	} else {
		res, err = finalHandler(ctx, req)
	}
	if err != nil {
		handleError(ctx, w, err, cfg)
		return
	}

	var typed *Res
	if res != nil {
		var ok bool
		if typed, ok = res.(*Res); !ok {
			handleError(ctx, w, ruwuma.Errorf(ruwuma.CodeUnknown, "interceptor replaced the response with %T", res), cfg)
			return
		}
	}
	out, err := h.endpoint.EncodeResponse(typed)
	if err != nil {
		handleError(ctx, w, err, cfg)
		return
	}
	if err := out.WriteTo(w); err != nil {
		// Response may be partially written, nothing we can do.
		cfg.logger.ErrorContext(ctx, "failed to write response",
			slog.String("endpoint", info.Endpoint),
			slog.Any("error", err))
	}
}

func (h *Handler[Req, Res]) bodyLimit(cfg *handlerConfig) uint64 {
	if h.maxRequestBodySize != nil {
		return *h.maxRequestBodySize
	}
	return cfg.maxRequestBodySize
}

func readBody(w http.ResponseWriter, r *http.Request, limit uint64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	reader := r.Body
	if limit > 0 {
		reader = http.MaxBytesReader(w, r.Body, maxBytes(limit))
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", ruwuma.ErrTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", ruwuma.ErrBodyDecoding, err)
	}
	return body, nil
}

// maxBytes converts a body limit for http.MaxBytesReader, clamping values
// that do not fit an int64.
func maxBytes(limit uint64) int64 {
	if limit > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(limit)
}

// clientKey identifies the client for rate limiting: by access token when
// one is presented, by remote address otherwise.
func clientKey(r *http.Request, token string) string {
	if token != "" {
		return "token:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
