package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flarehq/flarepp/internal/auth"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// SessionCookieName carries the access token for browser clients.
const SessionCookieName = "session"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireSession verifies the session cookie (or a Bearer header for API
// clients) and stashes the verified identity on the context.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)

		if raw == "" {
			abortUnauthorized(c, "Missing session")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			msg := "Invalid session"

			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Session expired"
			}

			abortUnauthorized(c, msg)
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxEmailKey, claims.Email)
		c.Set(CtxRoleKey, claims.Role)

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}

	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope(c, "unauthorized", message))
}

// errorEnvelope mirrors the handlers' error shape, requestId included, so
// middleware rejections look the same to clients.
func errorEnvelope(c *gin.Context, code, message string) gin.H {
	body := gin.H{
		"success": false,
		"code":    code,
		"message": message,
	}

	if rid := c.GetString(CtxRequestID); rid != "" {
		body["requestId"] = rid
	}

	return body
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	v, ok := c.Get(CtxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(user.Role)
	return role, ok
}
