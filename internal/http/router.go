package http

import (
	"net/http"

	"go.uber.org/zap"

	"market-overlay/backend-go/internal/config"
	"market-overlay/backend-go/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", api.Health)
	mux.HandleFunc("GET /api/v1/board", api.Board)
	mux.HandleFunc("GET /api/v1/calendar", api.Calendar)
	mux.HandleFunc("GET /api/v1/digest", api.Digest)
	mux.HandleFunc("GET /api/v1/news", api.News)

	h := http.Handler(mux)
	h = withRecovery(log)(h)
	h = withLogging(log)(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
