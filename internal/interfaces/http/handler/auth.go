package handler

import (
	"time"

	appidentity "github.com/erp/orderdesk/internal/application/identity"
	"github.com/erp/orderdesk/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// AuthHandler signs the desk in and out of the order backend
type AuthHandler struct {
	BaseHandler
	sessions *appidentity.SessionService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(base BaseHandler, sessions *appidentity.SessionService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, sessions: sessions}
}

// UseTokenRequest hands over an access token issued elsewhere
type UseTokenRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// SessionResponse describes the signed-in user. Tokens are never echoed back.
type SessionResponse struct {
	Profile   identity.UserProfile `json:"profile"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func toSessionResponse(s *identity.Session) SessionResponse {
	return SessionResponse{Profile: s.Profile, ExpiresAt: s.ExpiresAt}
}

// Login exchanges credentials for a session
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req appidentity.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sess, err := h.sessions.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSessionResponse(sess))
}

// UseToken installs an access token
// POST /auth/token
func (h *AuthHandler) UseToken(c *gin.Context) {
	var req UseTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sess, err := h.sessions.UseAccessToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSessionResponse(sess))
}

// Logout forgets the session
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the current session, or 401 when signed out
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	sess := h.sessions.Current()
	if sess == nil {
		h.Unauthorized(c, "Not signed in")
		return
	}
	h.Success(c, toSessionResponse(sess))
}
