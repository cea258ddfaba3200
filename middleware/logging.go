package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tirr-c/ruwuma"
	"github.com/tirr-c/ruwuma/server"
)

// LoggingInterceptor creates an interceptor that logs endpoint calls using slog.
// It logs the start and end of each call, including duration and error status.
// Protocol errors are client mistakes and are logged at Warn; anything else
// is logged at Error.
func LoggingInterceptor(logger *slog.Logger) server.UnaryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req any, info *server.Info, handler server.HandlerFunc) (any, error) {
		start := time.Now()
		attrs := []any{
			slog.String("endpoint", info.Endpoint),
			slog.String("method", info.Method),
			slog.String("path", info.Pattern.String()),
		}

		logger.InfoContext(ctx, "request started", attrs...)

		res, err := handler(ctx, req)
		attrs = append(attrs, slog.Duration("duration", time.Since(start)))

		var perr *ruwuma.Error
		switch {
		case err == nil:
			logger.InfoContext(ctx, "request completed", attrs...)
		case errors.As(err, &perr) && perr.Code != ruwuma.CodeUnknown:
			logger.WarnContext(ctx, "request rejected",
				append(attrs, slog.String("errcode", string(perr.Code)), slog.String("error", perr.Message))...)
		default:
			logger.ErrorContext(ctx, "request failed", append(attrs, slog.Any("error", err))...)
		}

		return res, err
	}
}
