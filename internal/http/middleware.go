package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrvaldes/biblioteca/internal/auth"
	"github.com/mrvaldes/biblioteca/internal/permissions"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns a request ID to every request, honoring one
// supplied by the client.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// requireOpenReadPrivilegedWrite enforces the open-read/privileged-write rule
// for a route.
func requireOpenReadPrivilegedWrite(evaluator *permissions.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := evaluator.OpenReadPrivilegedWrite(c.Request.Method, auth.GetPrincipal(c))
		if err != nil {
			respondInternalError(c, err, "permission check")
			c.Abort()
			return
		}
		if !allowed {
			respondForbidden(c)
			return
		}
		c.Next()
	}
}

// requirePrivileged enforces the privileged-only rule for a route, regardless
// of method.
func requirePrivileged(evaluator *permissions.Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := evaluator.PrivilegedOnly(auth.GetPrincipal(c))
		if err != nil {
			respondInternalError(c, err, "permission check")
			c.Abort()
			return
		}
		if !allowed {
			respondForbidden(c)
			return
		}
		c.Next()
	}
}
