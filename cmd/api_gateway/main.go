package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/household-daily-budget/internal/api_gateway"
	"github.com/household-daily-budget/internal/api_gateway/service"
	"github.com/household-daily-budget/internal/budget_engine/components"
	"github.com/household-daily-budget/internal/config"
	"github.com/household-daily-budget/internal/data/mongo"
	"github.com/household-daily-budget/internal/data/postgres"
	"github.com/household-daily-budget/internal/logger"
	"github.com/household-daily-budget/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context; migrations run before the pool opens
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// The gateway is the only writer of the ledger, so it owns the ledger indexes
	if err := mongoDB.EnsureIndexes(appCtx, mongo.LedgerCollectionName, mongo.LedgerIndexes()); err != nil {
		log.Error("Failed to ensure ledger indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	stores := components.Stores{
		Params:      postgres.NewParametersRepository(log, postgresDB),
		Categories:  postgres.NewCategoryRepository(log, postgresDB),
		Snapshots:   postgres.NewSnapshotRepository(log, postgresDB),
		SyncRecords: postgres.NewSyncRepository(log, postgresDB),
		Outbox:      postgres.NewOutboxRepository(log, postgresDB),
		Ledger:      mongo.NewLedgerRepository(log, mongoDB.Database()),
		Activity:    mongo.NewActivityRepository(log, mongoDB.Database()),
		ErrorLogs:   mongo.NewErrorLogRepository(log, mongoDB.Database()),
	}

	// Initialize the budget engine and the gateway services on top of it
	engine, err := components.CreateEngine(postgresDB, stores, log, cfg)
	if err != nil {
		log.Error("Failed to initialize budget engine", "error", err)
		os.Exit(1)
	}

	entryService := service.NewEntryService(log, service.EntryDependencies{
		TxRunner:    postgresDB,
		Ledger:      stores.Ledger,
		Params:      stores.Params,
		Dedup:       engine.Dedup,
		Versions:    engine.Versions,
		Tracker:     engine.Tracker,
		Outbox:      engine.Outbox,
		Coordinator: engine.Coordinator,
		Recorder:    engine.Recorder,
	})
	householdService := service.NewHouseholdService(log, service.HouseholdDependencies{
		TxRunner:    postgresDB,
		Params:      stores.Params,
		Categories:  stores.Categories,
		Feed:        stores.Activity,
		Outbox:      engine.Outbox,
		Coordinator: engine.Coordinator,
		Recorder:    engine.Recorder,
	})

	// Initialize REST server
	server, err := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Entries:     entryService,
		Household:   householdService,
		Budget:      engine.Budget,
		Maintenance: engine.Maintenance,
	}, map[string]api_gateway.HealthProbe{
		"postgres": postgresDB.Ping,
		"mongodb":  mongoDB.Ping,
	})
	if err != nil {
		log.Error("Failed to initialize REST server", "error", err)
		os.Exit(1)
	}
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence: stop taking requests before closing what they use
	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	engine.Shutdown()

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
