package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dkosarev/admincore/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses the inbound X-Request-ID when the caller supplies one,
// mints a fresh identifier otherwise, and echoes it on the response so log
// lines and client reports can be matched up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := correlationID(c)

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}

func correlationID(c *gin.Context) string {
	if id := c.GetHeader(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
