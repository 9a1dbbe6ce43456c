package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/davoseaworthui/referral-builder-next/pkg/health"
	pkgkafka "github.com/davoseaworthui/referral-builder-next/pkg/kafka"
	"github.com/davoseaworthui/referral-builder-next/pkg/middleware"
	"github.com/davoseaworthui/referral-builder-next/pkg/tracing"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/config"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/event"
	handler "github.com/davoseaworthui/referral-builder-next/services/referral/internal/handler/http"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/repository/memory"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/service"
)

const (
	serviceVersion = "0.1.0"

	// shutdownTimeout bounds graceful shutdown of the HTTP server.
	shutdownTimeout = 10 * time.Second
)

// App wires together all dependencies and runs the referral service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	publisher      pkgkafka.Publisher
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc

	// stop ends background work started by the router.
	stop context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.Setup(ctx, tracing.Service{
		Name:        handler.ServiceName,
		Version:     serviceVersion,
		Environment: cfg.Environment,
	}, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler()

	// Kafka is optional; without it events are dropped.
	var publisher pkgkafka.Publisher = pkgkafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.Kafka.Brokers), logger)
		healthHandler.RegisterOptional("kafka", producer.Ping)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.Kafka.Brokers))
	} else {
		logger.Info("kafka disabled, referral events will not be published")
	}

	// Build the dependency graph. A single store backs every endpoint.
	repo := memory.NewReferralRepository()
	eventProducer := event.NewProducer(publisher, logger)
	referralService := service.NewReferralService(repo, eventProducer, logger)

	healthHandler.Register("referral_store", func(ctx context.Context) error {
		_, err := referralService.CountReferrals(ctx)
		return err
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORS.AllowedOrigins
	corsCfg.Environment = cfg.Environment

	routerCfg := handler.RouterConfig{
		CORS:           corsCfg,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}
	if cfg.Pprof.Enabled {
		routerCfg.PprofCIDRs = cfg.Pprof.AllowedCIDRs
	}

	bgCtx, stop := context.WithCancel(context.Background())
	router := handler.NewRouter(bgCtx, referralService, healthHandler, logger, routerCfg)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		publisher:      publisher,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
		stop:           stop,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run listens on the configured port and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		a.Shutdown()
		return fmt.Errorf("listen on %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is canceled, then shuts
// down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", ln.Addr().String()),
		)
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components. Errors are logged, not returned.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.stop()

	if err := a.publisher.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
