package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"clinic-booking-server/internal/auth"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/utils"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

const (
	ctxIdentity  = "identity"
	ctxSessionID = "sessionID"
	ctxToken     = "sessionToken"
)

// AccessGate guards the staff routes. Page requests without a live session
// are redirected to the login page; API requests get 401.
func AccessGate(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			deny(c, "Authorization required")
			return
		}

		identity, sessionID, err := gate.Check(c.Request.Context(), token)
		if err != nil {
			deny(c, "Session is not valid: "+err.Error())
			return
		}

		// Set identity in context for downstream handlers
		c.Set(ctxIdentity, identity)
		c.Set(ctxSessionID, sessionID)
		c.Set(ctxToken, token)

		c.Next()
	}
}

// RoleAuthMiddleware restricts a route to the given roles. It should be used
// *after* AccessGate.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			utils.InternalServerError(c, "Identity not found in context. AccessGate might be missing.")
			c.Abort()
			return
		}
		for _, role := range allowedRoles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// IdentityFromContext returns the identity set by AccessGate.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(ctxIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// SessionTokenFromContext returns the token AccessGate accepted.
func SessionTokenFromContext(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func deny(c *gin.Context, message string) {
	if wantsHTML(c.Request) {
		target := LoginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	utils.Unauthorized(c, message)
	c.Abort()
}

func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
