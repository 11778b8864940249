package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chargehub-payments-api/internal/api_server"
	"github.com/chargehub-payments-api/internal/api_server/service"
	"github.com/chargehub-payments-api/internal/config"
	"github.com/chargehub-payments-api/internal/data/mongo"
	"github.com/chargehub-payments-api/internal/data/postgres"
	"github.com/chargehub-payments-api/internal/idempotency"
	"github.com/chargehub-payments-api/internal/logger"
	"github.com/chargehub-payments-api/internal/outbox_dispatcher"
	"github.com/chargehub-payments-api/internal/platform/messaging/producers"
	"github.com/chargehub-payments-api/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("payments_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

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

	// Initialize Kafka producers for charge events and the dead letter queue
	chargeProducer, err := producers.NewChargeEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize charge event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ producer", "error", err)
		os.Exit(1)
	}
	var dlqPublisher producers.DeadLetterPublisher
	if dlqProducer != nil {
		dlqPublisher = dlqProducer
	}

	// Initialize repositories
	chargeRepo := postgres.NewChargeRepository(log, postgresDB)
	customerRepo := postgres.NewCustomerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize idempotency cache with its background sweeper
	idempotencyCache := idempotency.NewCache(log, cfg.Idempotency.Retention)
	idempotencyCache.StartSweeper(appCtx, cfg.Idempotency.SweepInterval)

	// Initialize services
	chargeService := service.NewChargeService(log, postgresDB, chargeRepo, customerRepo, outboxRepo, auditRepo)
	customerService := service.NewCustomerService(customerRepo)

	// Initialize the outbox dispatcher
	eventPublisher := outbox_dispatcher.NewKafkaEventPublisher(outboxRepo, chargeProducer, log)
	dispatcher, err := outbox_dispatcher.NewDispatcher(&cfg.Outbox, &cfg.WorkerPool, outboxRepo, eventPublisher, dlqPublisher, log)
	if err != nil {
		log.Error("Failed to initialize outbox dispatcher", "error", err)
		os.Exit(1)
	}
	go dispatcher.Start(appCtx)

	// Initialize REST server
	server := api_server.NewServer(log, cfg, chargeService, customerService, idempotencyCache, postgresDB)
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

	// Cancel the application context to stop the dispatcher and sweeper
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new charges are accepted
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Release the dispatcher worker pool
	dispatcher.Shutdown()

	if err = chargeProducer.Close(); err != nil {
		log.Error("Error closing charge event producer", "error", err)
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ producer", "error", err)
		}
	}

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
