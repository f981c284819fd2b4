package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dkosarev/admincore/internal/core/domain"
)

const (
	// TraceIDHeader is the HTTP header name for the trace ID.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key for the trace ID.
	TraceIDKey = "trace_id"
	// PrincipalKey is the gin context key for the resolved principal.
	PrincipalKey = "principal"
)

// EnrichContext attaches a trace ID to each request, honoring one supplied
// by the client.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetPrincipal retrieves the principal resolved by Authenticate. Returns an
// anonymous principal when the guard admitted the request without one.
func GetPrincipal(c *gin.Context) *domain.Principal {
	if value, exists := c.Get(PrincipalKey); exists {
		if principal, ok := value.(*domain.Principal); ok {
			return principal
		}
	}
	return &domain.Principal{}
}
