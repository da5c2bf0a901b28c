// internal/server/server.go
// Package server exposes the marketplace operations over HTTP. Every
// request gets a correlation id and a trace span; viewer identity comes
// from an optional bearer token and is carried through context.
package server

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Kb28022004/toperNoteBackend/internal/auth"
	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/errors"
	"github.com/Kb28022004/toperNoteBackend/internal/metrics"
	"github.com/Kb28022004/toperNoteBackend/internal/server/middleware"
	"github.com/Kb28022004/toperNoteBackend/internal/service"
	"github.com/Kb28022004/toperNoteBackend/internal/telemetry"
)

// Server wires HTTP routes to the service layer.
type Server struct {
	svc      *service.Service
	verifier *auth.Verifier
	cache    *cache.Coordinator
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	logger   *slog.Logger
}

// New creates a Server.
func New(svc *service.Service, verifier *auth.Verifier, coordinator *cache.Coordinator,
	m *metrics.Metrics, registry *prometheus.Registry, logger *slog.Logger) *Server {
	return &Server{
		svc:      svc,
		verifier: verifier,
		cache:    coordinator,
		metrics:  m,
		registry: registry,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// Contributor lifecycle
	mux.HandleFunc("POST /api/contributors/submit", s.withMiddleware("contributors.submit", s.handleSubmit))
	mux.HandleFunc("GET /api/contributors", s.withMiddleware("contributors.directory", s.handleDirectory))
	mux.HandleFunc("GET /api/contributors/{id}", s.withMiddleware("contributors.profile", s.handleProfile))
	mux.HandleFunc("POST /api/contributors/{id}/follow", s.withMiddleware("contributors.follow", s.handleFollow))

	// Admin queues and decisions
	mux.HandleFunc("GET /api/admin/contributors", s.withMiddleware("admin.contributors", s.handleListContributors))
	mux.HandleFunc("POST /api/admin/contributors/{id}/decision", s.withMiddleware("admin.contributors.decide", s.handleDecideContributor))
	mux.HandleFunc("GET /api/admin/documents", s.withMiddleware("admin.documents", s.handleListDocuments))
	mux.HandleFunc("POST /api/admin/documents/{id}/decision", s.withMiddleware("admin.documents.decide", s.handleDecideDocument))

	// Documents and the marketplace
	mux.HandleFunc("POST /api/documents", s.withMiddleware("documents.upload", s.handleUpload))
	mux.HandleFunc("GET /api/marketplace", s.withMiddleware("marketplace", s.handleMarketplace))
	mux.HandleFunc("GET /api/documents/{id}", s.withMiddleware("documents.detail", s.handleDetail))
	mux.HandleFunc("GET /api/documents/{id}/preview", s.withMiddleware("documents.preview", s.handlePreview))
	mux.HandleFunc("GET /api/documents/{id}/buyers", s.withMiddleware("documents.buyers", s.handleBuyers))
	mux.HandleFunc("POST /api/documents/{id}/reviews", s.withMiddleware("documents.review", s.handleReview))

	// Purchases
	mux.HandleFunc("POST /api/orders", s.withMiddleware("orders.create", s.handleCreateOrder))
	mux.HandleFunc("POST /api/orders/confirm", s.withMiddleware("orders.confirm", s.handleConfirmOrder))

	return mux
}

// withMiddleware attaches correlation id, tracing, viewer extraction,
// request logging, and metrics to a handler.
func (s *Server) withMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx := middleware.WithCorrelationID(r.Context(), correlationID)

		ctx, span := telemetry.Tracer().Start(ctx, route)
		span.SetAttributes(
			attribute.String("correlation_id", correlationID),
			attribute.String("http.method", r.Method),
		)
		defer span.End()

		if token := bearerToken(r); token != "" {
			viewer, err := s.verifier.Parse(token)
			if err != nil {
				s.writeError(w, r.WithContext(ctx), errors.Authn("invalid session token"))
				return
			}
			ctx = middleware.WithViewer(ctx, viewer)
		}

		w.Header().Set("X-Correlation-Id", correlationID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r.WithContext(ctx))

		duration := time.Since(start)
		s.metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, httpStatusLabel(rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
		s.logger.LogAttrs(ctx, slog.LevelInfo, "request",
			slog.String("route", route),
			slog.String("method", r.Method),
			slog.Int("status", rec.status),
			slog.Duration("duration", duration),
			slog.String("correlation_id", correlationID),
		)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func httpStatusLabel(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports readiness. The cache being down does not make the
// service unready; it degrades to always-miss serving.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.cache.Healthy(r.Context()) {
		s.logger.Warn("cache unavailable, serving degraded")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// writeSuccess writes a JSON response body with the given status.
func (s *Server) writeSuccess(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

// writeError maps service errors onto the wire format. Unknown errors are
// logged and masked as internal.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := middleware.CorrelationIDFrom(r.Context())

	var apiErr *errors.Error
	if !stderrors.As(err, &apiErr) {
		s.logger.Error("unhandled error", "error", err, "correlation_id", correlationID)
		apiErr = errors.New(errors.MKT_INTERNAL, "internal error", correlationID)
	}
	if apiErr.CorrelationID == "" {
		apiErr.CorrelationID = correlationID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	if encErr := json.NewEncoder(w).Encode(map[string]any{"error": apiErr}); encErr != nil {
		s.logger.Warn("error encode failed", "error", encErr)
	}
}
