package middlewares

import (
	"net/http"

	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole gates a route group to an allowed set of roles. Role is a
// closed type, so a token minted with anything outside the set is a 403,
// never a silent pass.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || !role.IsValid() {
			abortUnauthorized(c, "Missing identity context")
			return
		}

		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			errorEnvelope(c, "forbidden", "Your role does not allow this action"))
	}
}
