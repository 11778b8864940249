package api_server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chargehub-payments-api/internal/api_server/handler"
	"github.com/chargehub-payments-api/internal/api_server/middleware"
	"github.com/chargehub-payments-api/internal/idempotency"
)

// setupRouter configures API routes and middleware for the application.
// The idempotency middleware only engages on POST requests carrying an
// Idempotency-Key header, so it is mounted globally.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	chargeHandler *handler.ChargeHandler,
	customerHandler *handler.CustomerHandler,
	idempotencyCache *idempotency.Cache,
	db DBPinger,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Idempotency(idempotencyCache))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Charge operations
		charges := v1.Group("/charges")
		{
			charges.POST("", chargeHandler.Create)
			charges.GET("", chargeHandler.List)
			charges.GET("/:id", chargeHandler.GetByID)
			charges.GET("/:id/history", chargeHandler.History)
			charges.PATCH("/:id", chargeHandler.UpdateStatus)
			charges.DELETE("/:id", chargeHandler.Delete)
		}

		// Customer operations
		customers := v1.Group("/customers")
		{
			customers.POST("", customerHandler.Create)
			customers.GET("", customerHandler.List)
			customers.GET("/:id", customerHandler.GetByID)
			customers.PATCH("/:id", customerHandler.Update)
			customers.DELETE("/:id", customerHandler.Delete)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			logger.Error("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "timestamp": time.Now().UTC()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
