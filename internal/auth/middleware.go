package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/config"
	"github.com/mrvaldes/biblioteca/internal/permissions"
)

// ContextKeyPrincipal is where the resolved principal is stored in the Gin
// context.
const ContextKeyPrincipal = "auth_principal"

// DevIdentityHeader names the header trusted as the principal's email when
// auth mode is "none". Intended for local development and tests only.
const DevIdentityHeader = "X-Auth-Email"

// Middleware resolves the request's principal. It never rejects a request:
// unauthenticated requests proceed as the anonymous principal and the
// permission rules decide what they may do.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
	}
}

// Handler returns a Gin middleware that resolves and stores the principal.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.headerIdentityHandler()
	}
	return m.authHandler()
}

// headerIdentityHandler trusts the dev identity header when auth is disabled.
func (m *Middleware) headerIdentityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if email := c.GetHeader(DevIdentityHeader); email != "" {
			c.Set(ContextKeyPrincipal, permissions.Authenticated(email))
		} else {
			c.Set(ContextKeyPrincipal, permissions.Anonymous())
		}
		c.Next()
	}
}

// authHandler resolves the principal from a bearer token or a session.
func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try Bearer token first (for API clients)
		if email, ok := m.tryBearerAuth(c); ok {
			c.Set(ContextKeyPrincipal, permissions.Authenticated(email))
			c.Next()
			return
		}

		// Try session auth (for cookie clients)
		if m.sessionManager != nil {
			if email := m.sessionManager.GetEmail(c.Request); email != "" {
				c.Set(ContextKeyPrincipal, permissions.Authenticated(email))
				c.Next()
				return
			}
		}

		c.Set(ContextKeyPrincipal, permissions.Anonymous())
		c.Next()
	}
}

// tryBearerAuth attempts to authenticate using a Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	email, err := m.service.ValidateToken(parts[1])
	if err != nil {
		return "", false
	}
	return email, true
}

// GetPrincipal extracts the resolved principal from the Gin context.
func GetPrincipal(c *gin.Context) permissions.Principal {
	if v, exists := c.Get(ContextKeyPrincipal); exists {
		if p, ok := v.(permissions.Principal); ok {
			return p
		}
	}
	return permissions.Anonymous()
}
