package handlers

import (
	"net/http"

	"github.com/flarehq/flarepp/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Every response carries a "success" flag so the frontend can branch
// without inspecting status codes.

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// RespondOK merges data into the success envelope.
func RespondOK(ctx *gin.Context, data gin.H) {
	respondSuccess(ctx, http.StatusOK, data)
}

func RespondCreated(ctx *gin.Context, data gin.H) {
	respondSuccess(ctx, http.StatusCreated, data)
}

func RespondAccepted(ctx *gin.Context, data gin.H) {
	respondSuccess(ctx, http.StatusAccepted, data)
}

func respondSuccess(ctx *gin.Context, status int, data gin.H) {
	body := gin.H{"success": true}

	for k, v := range data {
		body[k] = v
	}

	ctx.JSON(status, body)
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"success": false,
		"code":    code,
		"message": message,
	}

	if rid := requestIDFrom(ctx); rid != "" {
		body["requestId"] = rid
	}

	if details != nil {
		body["details"] = details
	}

	ctx.JSON(status, body)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}
