package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"clientpulse/internal/config"
	apierrors "clientpulse/internal/errors"
	"clientpulse/internal/infrastructure"
	custommw "clientpulse/internal/middleware"
	"clientpulse/internal/services"
	handlers "clientpulse/internal/transport/http"
	"clientpulse/pkg/contracts"
)

// compressLevel is the gzip level for HTML, JSON and CSV responses.
const compressLevel = 5

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ReportService *services.ReportService
	HealthService *services.HealthService

	errorHandler *apierrors.ErrorHandler
	pages        *handlers.Pages
}

// NewApplication wires the services, the router and the HTTP server for cfg.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetVersionString()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	a.ReportService = services.NewReportService(a.Config.Analysis, a.Logger, metrics)
	a.HealthService = services.NewHealthService(a.ReportService, a.Logger)
	a.errorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	pages, err := handlers.NewPages()
	if err != nil {
		return err
	}
	a.pages = pages

	a.Logger.Info("Services initialized",
		slog.Int64("max_concurrent_reports", a.ReportService.Capacity()),
		slog.Int64("max_upload_bytes", a.Config.Server.MaxUploadBytes))
	return nil
}

// setupRouter builds the chi router. Middleware order:
// RequestID → RealIP → CORS → OTel → Logger → Recoverer → headers → rate limit → Timeout.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	// Preflight requests have no matching route, so CORS runs before routing.
	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(a.getCORSConfig()))
	}

	otelMiddleware, err := custommw.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.errorHandler))

		secure := custommw.DefaultSecureHeaders()
		secure.DevMode = a.Config.Logging.Development
		r.Use(secure.Handler)

		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout))
		r.Use(custommw.Compress(compressLevel, "text/html", "application/json", "application/problem+json", "text/csv"))

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	// Scrapes skip the request middleware.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// setupAPIRoutes registers health, version and the JSON analysis API.
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	analyze := a.analyzeHandler()

	r.Get("/health", health.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/health/live", health.LivenessCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/version", health.Version)

		r.Mount("/"+contracts.APIVersion, analyze.APIRoutes())
	})
}

// setupHTMLRoutes registers the upload form and the HTML report.
func (a *Application) setupHTMLRoutes(r chi.Router) {
	analyze := a.analyzeHandler()

	r.Get("/", analyze.UploadPage)
	r.With(custommw.MaxBodySize(a.Config.Server.MaxUploadBytes)).Post("/analyze", analyze.AnalyzePage)
}

func (a *Application) analyzeHandler() *handlers.AnalyzeHandler {
	return handlers.NewAnalyzeHandler(a.ReportService, a.pages, a.Logger, a.errorHandler, a.Config.Server.MaxUploadBytes)
}

// getCORSConfig returns the CORS settings. The HTML pages are same-origin;
// the configured origins matter for browser clients of the JSON API.
func (a *Application) getCORSConfig() custommw.CORSConfig {
	return custommw.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			custommw.RequestIDHeader,
			"X-Requested-With",
		},
		ExposedHeaders: []string{custommw.RequestIDHeader, "Content-Disposition", "Retry-After"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Start begins serving on the configured port. A listener failure after
// startup cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln, cancel)
}

// Serve serves on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop drains in-flight requests, then flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application",
		slog.Int64("reports_in_flight", a.ReportService.InFlight()))

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until SIGINT, SIGTERM or a server failure, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("Received shutdown signal")

	// The signal context is already done; shut down on a fresh one.
	return a.Stop(context.WithoutCancel(ctx))
}
