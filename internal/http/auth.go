package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrvaldes/biblioteca/internal/auth"
)

// LoginRequest carries principal credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles login and logout for local auth mode.
type AuthController struct {
	service  *auth.Service
	sessions *auth.SessionManager
}

// NewAuthController creates a new AuthController.
func NewAuthController(service *auth.Service, sessions *auth.SessionManager) *AuthController {
	return &AuthController{service: service, sessions: sessions}
}

// Login verifies credentials, issues an API token and, when sessions are
// enabled, starts a cookie session.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	token, err := ac.service.Login(req.Email, req.Password)
	if err == auth.ErrInvalidCredentials {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid email or password"})
		return
	}
	if err != nil {
		respondInternalError(c, err, "login")
		return
	}

	if ac.sessions != nil {
		if err := ac.sessions.CreateSession(c.Request, req.Email); err != nil {
			respondInternalError(c, err, "create session")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout revokes the principal's token and destroys their session.
func (ac *AuthController) Logout(c *gin.Context) {
	principal := auth.GetPrincipal(c)
	if principal.Authenticated {
		if err := ac.service.RevokeToken(principal.Email); err != nil {
			respondInternalError(c, err, "revoke token")
			return
		}
	}
	if ac.sessions != nil {
		_ = ac.sessions.DestroySession(c.Request)
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}
