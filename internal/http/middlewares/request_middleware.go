package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID honors an inbound id from the proxy, minting one otherwise,
// and reflects it in the response so clients can quote it in reports.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		if id == "" {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(requestIDHeader, id)
		ctx.Set(CtxRequestID, id)

		ctx.Next()
	}
}

// RequestLogger emits one structured line per request after the handler
// chain finishes.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		route := ctx.FullPath()

		if route == "" {
			// unmatched path, e.g. 404
			route = ctx.Request.URL.Path
		}

		attrs := []any{
			"method", ctx.Request.Method,
			"route", route,
			"status", ctx.Writer.Status(),
			"bytes", ctx.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", ctx.GetString(CtxRequestID),
		}

		if userID, ok := UserIDFromContext(ctx); ok {
			attrs = append(attrs, "user_id", userID)
		}

		slog.Default().InfoContext(ctx.Request.Context(), "http_request", attrs...)
	}
}
