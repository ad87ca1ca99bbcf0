package handlers

import (
	"net/http"

	"farm_ops_backend/internal/services"
	"farm_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"user":      resp.User,
		"token":     resp.Token,
		"expiresAt": resp.ExpiresAt,
	})
}

// Logout revokes the bearer token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := utils.ExtractBearerToken(c.GetHeader("Authorization"))
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// Me returns the caller's identity.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := callerOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, identity)
}
