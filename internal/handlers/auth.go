package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-booking-server/internal/auth"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/utils"
	"clinic-booking-server/pkg/logging"
)

// AuthHandler handles the access gate endpoints.
type AuthHandler struct {
	Gate         *auth.Gate
	SecureCookie bool
	Logger       *logging.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(gate *auth.Gate, secureCookie bool, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{Gate: gate, SecureCookie: secureCookie, Logger: logger}
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token           string        `json:"token"`
	Identity        auth.Identity `json:"identity"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	IsAuthenticated bool          `json:"isAuthenticated"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Identity        auth.Identity `json:"identity"`
	IsAuthenticated bool          `json:"isAuthenticated"`
}

// Login handles staff login.
func (h *AuthHandler) Login(c *gin.Context) {
	var creds auth.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.Gate.Login(c.Request.Context(), creds)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		utils.Unauthorized(c, "Invalid credentials")
		return
	}
	if err != nil {
		h.Logger.Error("login failed", "error", err)
		utils.InternalServerError(c, "Failed to create session")
		return
	}

	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, res.Token, maxAge, "/", "", h.SecureCookie, true)

	utils.Success(c, "Login successful", LoginResponse{
		Token:           res.Token,
		Identity:        res.Identity,
		ExpiresAt:       res.ExpiresAt,
		IsAuthenticated: true,
	})
}

// Logout clears the session marker and cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.Gate.Logout(c.Request.Context(), middleware.SessionTokenFromContext(c)); err != nil {
		h.Logger.Error("logout failed", "error", err)
		utils.InternalServerError(c, "Failed to end session")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.SecureCookie, true)
	utils.Success(c, "Logout successful", nil)
}

// Session returns the signed-in identity.
func (h *AuthHandler) Session(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Not signed in")
		return
	}
	utils.Success(c, "Session is active", SessionResponse{Identity: identity, IsAuthenticated: true})
}
