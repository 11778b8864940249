// Package api_server wires the HTTP surface of the charges API: routing,
// middleware and server lifecycle.
package api_server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chargehub-payments-api/internal/api_server/handler"
	"github.com/chargehub-payments-api/internal/api_server/service"
	"github.com/chargehub-payments-api/internal/config"
	"github.com/chargehub-payments-api/internal/idempotency"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// DBPinger reports whether the backing database is reachable. Satisfied
// by the postgres pool.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	chargeService service.ChargeService,
	customerService service.CustomerService,
	idempotencyCache *idempotency.Cache,
	db DBPinger,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	chargeHandler := handler.NewChargeHandler(log, chargeService)
	customerHandler := handler.NewCustomerHandler(log, customerService)

	setupRouter(log, httpRouter, chargeHandler, customerHandler, idempotencyCache, db)

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
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
