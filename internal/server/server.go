package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dgnsrekt/asciitv/internal/channel"
)

// NewRouter builds the status router. viewers, when non-nil, is mounted at /ws.
func NewRouter(registry *channel.Registry, viewers http.Handler, logger *zap.Logger) http.Handler {
	h := &handlers{registry: registry, logger: logger}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(zapLoggerMiddleware(logger))

	r.Get("/healthz", h.health)
	r.Get("/channels", h.listChannels)
	r.Get("/channels/{index}", h.getChannel)
	r.Handle("/metrics", promhttp.Handler())

	if viewers != nil {
		r.Handle("/ws", viewers)
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
			next.ServeHTTP(w, r)
		})
	}
}
