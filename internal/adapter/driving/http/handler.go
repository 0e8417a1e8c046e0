package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebhookPath is where Telegram delivers updates in webhook mode.
const WebhookPath = "/telegram/webhook"

// HealthChecker reports whether the service can take traffic.
// application.HealthService satisfies it.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Handler is the HTTP driving adapter serving health, metrics and, in
// webhook mode, Telegram updates.
type Handler struct {
	health   HealthChecker
	gatherer prometheus.Gatherer
	webhook  http.Handler
	logger   *slog.Logger
}

// NewHandler creates a Handler. webhook may be nil, in which case the
// webhook route is not registered.
func NewHandler(
	health HealthChecker,
	gatherer prometheus.Gatherer,
	webhook http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		health:   health,
		gatherer: gatherer,
		webhook:  webhook,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	if h.webhook != nil {
		mux.Handle("POST "+WebhookPath, h.webhook)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health pings the entry store and reports 200 when it answers, 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := h.health.Check(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Store:  "unreachable",
			Time:   now,
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Store:  "ok",
		Time:   now,
	})
}
