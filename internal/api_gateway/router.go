package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/household-daily-budget/internal/api_gateway/handler"
	"github.com/household-daily-budget/internal/api_gateway/middleware"
	"github.com/ulule/limiter/v3"
)

// handlers groups the route handlers wired into the router
type handlers struct {
	entries   *handler.EntryHandler
	household *handler.HouseholdHandler
	budget    *handler.BudgetHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	allowedOrigins []string,
	rateLimiter *limiter.Limiter,
	h handlers,
	health gin.HandlerFunc,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	if len(allowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders,
			middleware.ActorIDHeader, middleware.CorrelationIDHeader, "Idempotency-Key")
		corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader}
		corsConfig.MaxAge = 12 * time.Hour
		r.Use(cors.New(corsConfig))
	}

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequireActor())
	if rateLimiter != nil {
		v1.Use(middleware.RateLimit(logger, rateLimiter))
	}

	households := v1.Group("/households/:id")
	{
		// Setup
		households.GET("/parameters", h.household.GetParameters)
		households.PUT("/parameters", h.household.UpdateParameters)
		households.GET("/categories", h.household.ListCategories)
		households.POST("/categories", h.household.CreateCategory)
		households.PATCH("/categories/:categoryId", h.household.UpdateCategory)
		households.POST("/category-spend", h.budget.ApplyCategoryDelta)

		// Ledger entries
		households.GET("/entries", h.entries.List)
		households.POST("/entries", h.entries.Create)
		households.GET("/entries/:entryId", h.entries.GetByID)
		households.PATCH("/entries/:entryId", h.entries.Update)
		households.DELETE("/entries/:entryId", h.entries.Delete)
		households.GET("/entries/:entryId/sync", h.budget.GetSyncRecord)
		households.POST("/entries/:entryId/sync/resolve", h.budget.ResolveConflict)
		households.GET("/conflicts", h.budget.ListConflicts)

		// Daily budget and cache control
		households.GET("/budget/:date", h.budget.GetDailyBudget)
		households.POST("/budget/:date/recalculate", h.budget.Recalculate)
		households.POST("/snapshots/invalidate", h.budget.Invalidate)

		households.GET("/overview", h.budget.Overview)
		households.GET("/activity", h.household.ListActivity)
		households.POST("/maintenance", h.budget.Maintenance)
	}

	// Health check endpoint for monitoring
	r.GET("/health", health)
	r.NoRoute(func(c *gin.Context) {
		handler.RespondNotFound(c, "Route not found")
	})
}

// healthHandler reports ok when every probe passes, 503 otherwise
func healthHandler(probes map[string]HealthProbe) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		checks := make(map[string]string, len(probes))
		for name, probe := range probes {
			if err := probe(c.Request.Context()); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": checks, "timestamp": time.Now().UTC()})
	}
}
