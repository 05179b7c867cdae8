package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects non-JSON bodies on mutating routes. Do not mount it
// on the multipart upload route.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))

			if err != nil || mt != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType,
					errorEnvelope(c, "unsupported_media_type", "Content-Type must be application/json"))
				return
			}
		}

		c.Next()
	}
}
