// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/casedesk/internal/config"
	"github.com/vyrodovalexey/casedesk/internal/handler"
	"github.com/vyrodovalexey/casedesk/internal/middleware"
	"github.com/vyrodovalexey/casedesk/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server
	router      *mux.Router
	probeRouter *mux.Router
	config      *config.Config
	logger      *zap.Logger
	hub         *handler.EventHub
	registry    *prometheus.Registry
}

// New creates a new Server instance serving the collection API for itemStore.
// The probe server is only created when the probe port is not 0.
func New(cfg *config.Config, logger *zap.Logger, itemStore store.Store) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		probeRouter: mux.NewRouter(),
		config:      cfg,
		logger:      logger,
		hub:         handler.NewEventHub(logger),
		registry:    prometheus.NewRegistry(),
	}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s.setupMiddleware()
	s.setupRoutes(itemStore)
	s.setupProbeRoutes(itemStore)
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain.
// Middleware is attached to the mux router so route variables are
// visible to the metrics and logging middleware.
func (s *Server) setupMiddleware() {
	cors := middleware.CORSConfig{
		AllowedOrigins: s.config.CORS.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         s.config.CORS.MaxAge,
	}

	// First in the chain is outermost.
	chain := []middleware.Middleware{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
	}
	if s.config.Server.MetricsEnabled {
		chain = append(chain, middleware.NewMetrics(s.registry).Middleware())
	}
	chain = append(chain,
		middleware.Logging(s.logger),
		middleware.CORS(cors),
	)

	s.router.Use(mux.MiddlewareFunc(middleware.Chain(chain...)))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(itemStore store.Store) {
	restHandler := handler.NewRESTHandler(itemStore, s.hub, s.logger, s.config.Server.Namespace)
	restHandler.RegisterRoutes(s.router)

	s.hub.RegisterRoutes(s.router)

	// Preflight requests are answered by the CORS middleware once a route matches.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if s.config.Server.MetricsEnabled {
		s.router.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)
	}
}

// setupProbeRoutes configures the probe router with health, readiness and
// metrics endpoints only.
func (s *Server) setupProbeRoutes(itemStore store.Store) {
	probeHandler := handler.NewRESTHandler(itemStore, nil, s.logger, s.config.Server.Namespace)

	s.probeRouter.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.probeRouter.HandleFunc("/health", probeHandler.HealthCheck).Methods(http.MethodGet)
	s.probeRouter.HandleFunc("/ready", probeHandler.ReadyCheck).Methods(http.MethodGet)

	if s.config.Server.MetricsEnabled {
		s.probeRouter.Handle("/metrics", s.metricsHandler()).Methods(http.MethodGet)
	}
}

// metricsHandler exposes the server's own registry.
func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// setupHTTPServer configures the HTTP servers.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	if s.config.Server.ProbePort == 0 {
		return
	}

	s.probeServer = &http.Server{
		Addr:              s.config.ProbeAddress(),
		Handler:           s.probeRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Start starts the HTTP server and, when configured, the probe server.
// It blocks until the main server stops.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.String("namespace", s.config.Server.Namespace),
		zap.Bool("metrics_enabled", s.config.Server.MetricsEnabled),
	)

	if s.probeServer != nil {
		go func() {
			s.logger.Info("starting probe server", zap.String("address", s.config.ProbeAddress()))
			if err := s.probeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("probe server failed", zap.Error(err))
			}
		}()
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// Close all WebSocket connections first
	s.hub.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("probe server shutdown: %w", err)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeRouter returns the probe server's router for testing purposes.
func (s *Server) ProbeRouter() *mux.Router {
	return s.probeRouter
}

// Hub returns the change event hub.
func (s *Server) Hub() *handler.EventHub {
	return s.hub
}
