package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/carehours/backend/internal/infrastructure/cache"
	"github.com/carehours/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader names the client-supplied request key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// Idempotency rejects a repeated Idempotency-Key on the same route for ttl.
// Requests without the header pass through. A failed request releases its
// key so the client can retry with the same one.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeValidation, "Idempotency-Key is too long", c.GetString("request_id")))
			return
		}

		scoped := GetTenantID(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		ok, err := store.Claim(c.Request.Context(), scoped, ttl)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing request", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "Request with this Idempotency-Key was already received", c.GetString("request_id")))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(c.Request.Context(), scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
