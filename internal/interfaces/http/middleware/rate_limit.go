package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/interfaces/http/response"
	"solbol.backend/pkg/logger"
)

// Limiter counts hits per scope and subject within a window.
type Limiter interface {
	Consume(ctx context.Context, scope, subject string, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// RateLimit rejects callers that exceed limit requests per window with a
// 429 and a Retry-After header. The subject is the authenticated user when
// there is one, otherwise the client IP. Limiter failures let the request
// through.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			subject = userID.String()
		}

		count, retryAfter, err := limiter.Consume(c.Request.Context(), scope, subject, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if count > limit {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.Abort(c, domainerrors.TooManyRequests("too many requests, try again later").
				WithDetails(gin.H{"retry_after_seconds": retryAfter}))
			return
		}

		c.Next()
	}
}
