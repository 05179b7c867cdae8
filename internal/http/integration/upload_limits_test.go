package integration

import (
	"bytes"
	"net/http"
	"testing"
)

// A video at exactly the per-file limit must upload even though the
// multipart framing and thumbnail push the whole body past it; the body
// cap carries headroom for that overhead.
func TestUpload_FileAtLimitWithThumbnail(t *testing.T) {
	env := setupEnv(t)
	resetDB(t, env.pool)
	defer resetDB(t, env.pool)

	creatorSession, _, _ := signup(t, env, "limit.creator@example.com", "Cara Creator", "creator")

	w, _ := doMultipart(env.router, "/api/creator/upload-video",
		map[string]string{"title": "Right At The Cap"},
		map[string][]byte{
			"videofile": bytes.Repeat([]byte("v"), int(env.cfg.MaxUploadBytes)),
			"thumbnail": bytes.Repeat([]byte("t"), 64<<10),
		},
		creatorSession,
	)

	if w.Code != http.StatusCreated {
		t.Fatalf("upload at the limit got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestUpload_FileOverLimit(t *testing.T) {
	env := setupEnv(t)
	resetDB(t, env.pool)
	defer resetDB(t, env.pool)

	creatorSession, _, _ := signup(t, env, "over.creator@example.com", "Cara Creator", "creator")

	w, _ := doMultipart(env.router, "/api/creator/upload-video",
		map[string]string{"title": "Too Big"},
		map[string][]byte{"videofile": bytes.Repeat([]byte("v"), int(env.cfg.MaxUploadBytes)+1)},
		creatorSession,
	)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized upload got status %d, body=%s", w.Code, w.Body.String())
	}

	if body := mustReadJSON(t, w); body["code"] != "file_too_large" {
		t.Fatalf("got code %v, want file_too_large (the per-file check, not the body cap)", body["code"])
	}
}
