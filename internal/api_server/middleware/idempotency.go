package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chargehub-payments-api/internal/idempotency"
)

const (
	// IdempotencyKeyHeader carries the client supplied idempotency key
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotencyReplayedHeader marks responses served from the replay cache
	IdempotencyReplayedHeader = "Idempotency-Replayed"
)

// bodyCapture tees everything the handler writes so a successful response
// can be stored for replay.
type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes POST requests carrying an Idempotency-Key header
// exactly-once per key: the first request executes, later requests within the
// retention window receive the recorded response with a replay marker.
// Requests without the header pass through untouched.
func Idempotency(cache *idempotency.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		result, replayed, err := cache.Execute(c.Request.Context(), key, func() (*idempotency.Result, error) {
			capture := &bodyCapture{ResponseWriter: c.Writer}
			c.Writer = capture
			c.Next()

			return &idempotency.Result{
				Status:      capture.Status(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}, nil
		})
		if err != nil {
			// The only error Execute surfaces here is the request context
			// expiring while waiting on another in-flight request.
			if c.Request.Context().Err() != nil {
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if replayed {
			c.Header(IdempotencyReplayedHeader, "true")
			contentType := result.ContentType
			if contentType == "" {
				contentType = "application/json"
			}
			c.Data(result.Status, contentType, result.Body)
			c.Abort()
		}
	}
}
