package middleware

import (
	"github.com/gin-gonic/gin"
	"solbol.backend/internal/domain/entities"
)

// RequestMetaMiddleware stores the caller IP and user agent on the request
// context for audit records.
func RequestMetaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := entities.WithRequestMeta(c.Request.Context(), entities.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
