package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag lets clients revalidate slow-moving payloads like
// the editor directory instead of re-downloading them.
func RespondJSONWithETag(ctx *gin.Context, status int, payload any) {
	body, err := json.Marshal(payload)

	if err != nil {
		// fall back to a plain response; revalidation is best-effort
		ctx.JSON(status, payload)
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

// etagMatches implements the If-None-Match comparison, including the
// wildcard form and weak validators like W/"abc".
func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)

	if header == "" {
		return false
	}

	if header == "*" {
		return true
	}

	want := strings.TrimPrefix(current, "W/")

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimSpace(strings.TrimPrefix(candidate, "W/"))

		if candidate == want {
			return true
		}
	}

	return false
}
