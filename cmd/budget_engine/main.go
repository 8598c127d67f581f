package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/household-daily-budget/internal/budget_engine/components"
	"github.com/household-daily-budget/internal/budget_engine/consumer"
	"github.com/household-daily-budget/internal/budget_engine/housekeeping"
	"github.com/household-daily-budget/internal/budget_engine/outbox_poller"
	"github.com/household-daily-budget/internal/budget_engine/service"
	"github.com/household-daily-budget/internal/config"
	"github.com/household-daily-budget/internal/data/mongo"
	"github.com/household-daily-budget/internal/data/postgres"
	"github.com/household-daily-budget/internal/logger"
	"github.com/household-daily-budget/internal/platform/messaging/consumers"
	"github.com/household-daily-budget/internal/platform/messaging/producers"
	"github.com/household-daily-budget/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("budget_engine")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Budget Engine",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
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

	if err := mongoDB.EnsureIndexes(appCtx, mongo.ActivityCollectionName, mongo.ActivityIndexes()); err != nil {
		log.Error("Failed to ensure activity indexes", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	snapshotRepo := postgres.NewSnapshotRepository(log, postgresDB)
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())
	errorLogRepo := mongo.NewErrorLogRepository(log, mongoDB.Database())

	// Initialize Kafka producers: household events out of the outbox, poison messages to the DLQ
	eventProducer, err := producers.NewHouseholdEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize household event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	// Initialize event processor: conditional invalidation plus the activity feed
	processor := components.CreateEventProcessor(snapshotRepo, activityRepo, errorLogRepo, log, cfg)

	householdEventHandler := consumer.NewHouseholdEventHandler(
		log.With("component", "household_event_handler"),
		processor,
		dlqProducer,
		cfg.Kafka.HandlerAttempts,
		cfg.Kafka.HandlerBackoff,
	)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(
		outboxRepo,
		eventProducer,
		log.With("component", "event_publisher"),
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		eventPublisher,
		log.With("component", "outbox_poller"),
	)

	janitor := housekeeping.NewJanitor(
		cfg.Retention,
		outboxRepo,
		activityRepo,
		errorLogRepo,
		log.With("component", "janitor"),
	)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.HouseholdTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, householdEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Start retention janitor in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		janitor.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// The consumer has stopped, so no new work reaches the pool
	if wpProcessor, ok := processor.(*service.WorkerPoolEventProcessor); ok {
		wpProcessor.Shutdown()
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing household event producer", "error", err)
	}

	// Close DLQ Kafka producer
	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Budget Engine shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Budget Engine shutdown completed with errors")
	} else {
		log.Info("Budget Engine shutdown completed successfully")
	}
}
