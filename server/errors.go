package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tirr-c/ruwuma"
)

func handleError(ctx context.Context, w http.ResponseWriter, err error, cfg *handlerConfig) {
	var perr *ruwuma.Error
	if cfg.errorTransformer != nil {
		perr = cfg.errorTransformer(err)
	}
	if perr == nil {
		perr = ruwuma.DefaultErrorTransformer(err)
	}
	if perr.Code == ruwuma.CodeUnknown {
		cfg.logger.ErrorContext(ctx, "internal error", slog.Any("error", err))
		if cfg.maskInternalErrors {
			masked := *perr
			masked.Message = "internal server error"
			masked.Details = nil
			perr = &masked
		}
	}
	writeError(w, perr, cfg.logger)
}

func writeError(w http.ResponseWriter, perr *ruwuma.Error, logger *slog.Logger) {
	if err := ruwuma.EncodeError(perr).WriteTo(w); err != nil {
		// Headers already sent, nothing we can do. Log for debugging.
		logger.Error("failed to encode error response",
			slog.String("errcode", string(perr.Code)),
			slog.String("message", perr.Message),
			slog.Any("error", err))
	}
}
