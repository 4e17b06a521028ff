package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"econdash/internal/metrics"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Service DashboardService
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
	Version string

	// RatePerSecond limits /api; 0 disables the limit.
	RatePerSecond float64
	Burst         int
}

// NewRouter builds the HTTP routes: /health, /metrics and the /api tree.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger, cfg.Metrics))
	r.Use(Recoverer(cfg.Logger))

	health := NewHealthHandler(cfg.Service, cfg.Version)
	r.Get("/health", health.HealthCheck)
	r.Get("/health/live", health.LivenessCheck)
	r.Handle("/metrics", cfg.Metrics.Handler())

	dashboard := NewDashboardHandler(cfg.Service, cfg.Logger)
	r.Route("/api", func(r chi.Router) {
		if cfg.RatePerSecond > 0 {
			r.Use(NewRateLimiter(cfg.RatePerSecond, cfg.Burst, cfg.Logger).Handler)
		}
		r.Mount("/", dashboard.Routes())
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, NewProblem(http.StatusNotFound, "No route for "+r.URL.Path))
	})
	return r
}

// Server is the dashboard HTTP server.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, logger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("HTTP server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
