package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/household-daily-budget/internal/api_gateway/handler"
	"github.com/household-daily-budget/internal/api_gateway/middleware"
	"github.com/household-daily-budget/internal/api_gateway/service"
	engine "github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/config"
	"github.com/ulule/limiter/v3"
)

// Services are the application services the gateway exposes
type Services struct {
	Entries     service.EntryService
	Household   service.HouseholdService
	Budget      engine.BudgetService
	Maintenance engine.MaintenanceService
}

// HealthProbe checks one backing store
type HealthProbe func(ctx context.Context) error

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services, probes map[string]HealthProbe) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var rateLimiter *limiter.Limiter
	if cfg.RateLimit.Enabled {
		var err error
		if rateLimiter, err = middleware.NewRateLimiter(cfg.RateLimit.Rate); err != nil {
			return nil, err
		}
	}

	httpRouter := gin.New()
	setupRouter(log, httpRouter, cfg.Server.AllowedOrigins, rateLimiter, handlers{
		entries:   handler.NewEntryHandler(log, services.Entries),
		household: handler.NewHouseholdHandler(log, services.Household),
		budget:    handler.NewBudgetHandler(log, services.Budget, services.Maintenance),
	}, healthHandler(probes))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
