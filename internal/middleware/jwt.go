package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CybraneX-team/IEDUP-LMS/internal/auth"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/response"
)

const (
	// ContextIdentity is the key for the caller identity in gin context.
	ContextIdentity = "identity"
	// ContextName is the key for the caller display name in gin context.
	ContextName = "user_name"
	// ContextRole is the key for the caller role in gin context.
	ContextRole = "user_role"
)

// tokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the accessToken cookie used by the meeting client.
func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie("accessToken"); err == nil {
		return cookie
	}
	return ""
}

// JWT returns a middleware that validates the bearer token and sets the
// caller identity and role in context. Missing or invalid tokens are
// treated as anonymous and rejected with 401.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "Unauthorized")
			c.Abort()
			return
		}
		c.Set(ContextIdentity, claims.Identity)
		c.Set(ContextName, claims.Name)
		c.Set(ContextRole, claims.ResolvedRole())
		c.Next()
	}
}
