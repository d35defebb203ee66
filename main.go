package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	appLogger "github.com/FACorreiaa/cv-builder-api/app/logger"
	"github.com/FACorreiaa/cv-builder-api/app/observability/metrics"
	"github.com/FACorreiaa/cv-builder-api/app/tracer"
	"github.com/FACorreiaa/cv-builder-api/config"
	"github.com/FACorreiaa/cv-builder-api/internal/api/auth"
	"github.com/FACorreiaa/cv-builder-api/internal/container"
	"github.com/FACorreiaa/cv-builder-api/internal/router"
)

// @title                       CV Builder API
// @version                     1.0
// @description                 Authentication, resume storage and payment initiation for the CV builder.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// --- Initial Loading ---
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := appLogger.New(os.Stdout, cfg.IsDevelopment())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

func run(cfg config.Config, logger *slog.Logger) error {
	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Telemetry ---
	providers, err := tracer.InitTracingAndMetrics("cv-builder-api")
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	appMetrics, err := metrics.InitAppMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// --- Dependency Injection ---
	c, err := container.NewContainer(ctx, &cfg, appMetrics, logger)
	if err != nil {
		return fmt.Errorf("init container: %w", err)
	}
	defer c.Close(context.Background())

	// --- Router Setup ---
	handler := newHTTPHandler(cfg, &router.Config{
		AuthHandler:            c.AuthHandler,
		ResumeHandler:          c.ResumeHandler,
		PaymentHandler:         c.PaymentHandler,
		AuthenticateMiddleware: auth.Authenticate(logger, c.Tokens),
		AllowedOrigins:         cfg.Server.AllowedOrigins,
	}, logger)

	// --- HTTP Server Setup ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(apiServer, "api", logger) })

	servers := []*http.Server{apiServer}
	if cfg.Metrics.Port != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", providers.MetricsHandler)
		metricsServer := &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Metrics.Port),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		servers = append(servers, metricsServer)
		g.Go(func() error { return serve(metricsServer, "metrics", logger) })
	}

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newHTTPHandler mounts the API routes behind the server-wide middleware.
func newHTTPHandler(cfg config.Config, routes *router.Config, logger *slog.Logger) http.Handler {
	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(cfg.Server.Timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", router.SetupRouter(routes))
	return r
}

func serve(srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("Starting HTTP server", slog.String("server", name), slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
