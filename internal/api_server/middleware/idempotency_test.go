package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/chargehub-payments-api/internal/idempotency"
)

func newIdempotencyRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cache := idempotency.NewCache(logger, time.Hour)

	router := gin.New()
	router.Use(Idempotency(cache))
	router.POST("/charges", handler)
	router.GET("/charges", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	return router
}

func TestIdempotencyMiddleware_ReplaysSuccess(t *testing.T) {
	executions := 0
	router := newIdempotencyRouter(func(c *gin.Context) {
		executions++
		c.JSON(http.StatusCreated, gin.H{"attempt": executions})
	})

	key := "abc-123"

	first := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/charges", nil)
	req.Header.Set(IdempotencyKeyHeader, key)
	router.ServeHTTP(first, req)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyReplayedHeader))

	second := httptest.NewRecorder()
	req2, _ := http.NewRequest(http.MethodPost, "/charges", nil)
	req2.Header.Set(IdempotencyKeyHeader, key)
	router.ServeHTTP(second, req2)

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, first.Body.String(), second.Body.String(), "replay must be byte identical")
	assert.Equal(t, 1, executions)
}

func TestIdempotencyMiddleware_FailureIsRetriable(t *testing.T) {
	executions := 0
	router := newIdempotencyRouter(func(c *gin.Context) {
		executions++
		if executions == 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid card"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"attempt": executions})
	})

	key := "retry-key"

	first := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/charges", nil)
	req.Header.Set(IdempotencyKeyHeader, key)
	router.ServeHTTP(first, req)

	assert.Equal(t, http.StatusUnprocessableEntity, first.Code)

	// Same key with a corrected request executes again.
	second := httptest.NewRecorder()
	req2, _ := http.NewRequest(http.MethodPost, "/charges", nil)
	req2.Header.Set(IdempotencyKeyHeader, key)
	router.ServeHTTP(second, req2)

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, 2, executions)
}

func TestIdempotencyMiddleware_NoKeyPassesThrough(t *testing.T) {
	executions := 0
	router := newIdempotencyRouter(func(c *gin.Context) {
		executions++
		c.JSON(http.StatusCreated, gin.H{"attempt": executions})
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/charges", nil)
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)
	}

	assert.Equal(t, 2, executions, "requests without a key are independent")
}

func TestIdempotencyMiddleware_IgnoresNonPost(t *testing.T) {
	router := newIdempotencyRouter(func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/charges", nil)
		req.Header.Set(IdempotencyKeyHeader, "get-key")
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get(IdempotencyReplayedHeader))
	}
}

func TestIdempotencyMiddleware_DistinctKeysDistinctResults(t *testing.T) {
	executions := 0
	router := newIdempotencyRouter(func(c *gin.Context) {
		executions++
		c.JSON(http.StatusCreated, gin.H{"attempt": executions})
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/charges", nil)
		req.Header.Set(IdempotencyKeyHeader, fmt.Sprintf("key-%d", i))
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusCreated, rr.Code)
	}

	assert.Equal(t, 2, executions)
}
