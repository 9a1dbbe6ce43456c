package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davoseaworthui/referral-builder-next/pkg/health"
	"github.com/davoseaworthui/referral-builder-next/pkg/middleware"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/service"
)

// ServiceName labels metrics and spans emitted by the router.
const ServiceName = "referral"

// RouterConfig holds the transport settings of the referral API.
type RouterConfig struct {
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int

	// PprofCIDRs mounts /debug/pprof behind an allowlist when non-empty.
	PprofCIDRs []string
}

// NewRouter creates a chi router with all referral service routes registered.
// ctx bounds the background cleanup of the rate limiter.
func NewRouter(
	ctx context.Context,
	referralService *service.ReferralService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	// Referral API endpoints
	referralHandler := NewReferralHandler(referralService, logger)

	r.Route("/api/referrals", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}
		r.Use(middleware.ContentTypeJSON)

		r.Get("/", referralHandler.ListReferrals)
		r.Post("/", referralHandler.CreateReferral)
		r.Get("/{id}", referralHandler.GetReferral)
		r.Delete("/{id}", referralHandler.DeleteReferral)
	})

	return r
}
