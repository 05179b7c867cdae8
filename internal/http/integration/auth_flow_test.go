package integration

import (
	"net/http"
	"testing"
)

func TestAuthFlow_Signup_Refresh_Logout(t *testing.T) {
	env := setupEnv(t)
	resetDB(t, env.pool)

	defer resetDB(t, env.pool)

	session, refresh, _ := signup(t, env, "sam@example.com", "Sam Doe", "creator")

	// authenticated /me

	w, _ := doRequest(env.router, http.MethodGet, "/api/auth/me", "", session)

	if w.Code != http.StatusOK {
		t.Fatalf("me got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	parsed := mustReadJSON(t, w)

	u, _ := parsed["user"].(map[string]any)

	if u["email"] != "sam@example.com" || u["role"] != "creator" {
		t.Fatalf("me returned unexpected user: %v", u)
	}

	// refresh rotates the cookie

	w2, response2 := doRequest(env.router, http.MethodPost, "/api/auth/refresh", "", refresh)

	if w2.Code != http.StatusOK {
		t.Fatalf("refresh got status %d, want %d, body=%s", w2.Code, http.StatusOK, w2.Body.String())
	}

	rotated := cookieByName(t, response2, "refresh_token")

	// the old cookie is revoked after rotation

	w3, _ := doRequest(env.router, http.MethodPost, "/api/auth/refresh", "", refresh)
	if w3.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(old cookie) got status %d, want %d, body=%s", w3.Code, http.StatusUnauthorized, w3.Body.String())
	}

	// the rotated cookie still works

	w4, _ := doRequest(env.router, http.MethodPost, "/api/auth/refresh", "", rotated)

	if w4.Code != http.StatusOK {
		t.Fatalf("refresh(new cookie) got status %d, want %d, body=%s", w4.Code, http.StatusOK, w4.Body.String())
	}

	// logout revokes and clears

	w5, response5 := doRequest(env.router, http.MethodGet, "/api/auth/logout", "", rotated)

	if w5.Code != http.StatusOK {
		t.Fatalf("logout got status %d, want %d, body=%s", w5.Code, http.StatusOK, w5.Body.String())
	}

	cleared := false

	for _, c := range response5.Cookies() {
		if c.Name == "refresh_token" && (c.MaxAge < 0 || c.Value == "") {
			cleared = true
		}
	}

	if !cleared {
		t.Fatalf("expected logout to clear refresh_token cookie")
	}

	w6, _ := doRequest(env.router, http.MethodPost, "/api/auth/refresh", "", rotated)
	if w6.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(after logout) got status %d, want %d, body=%s", w6.Code, http.StatusUnauthorized, w6.Body.String())
	}
}

func TestAuthFlow_DuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	resetDB(t, env.pool)
	defer resetDB(t, env.pool)

	signup(t, env, "dup@example.com", "First", "creator")

	body := `{"email":"dup@example.com","password":"password123","name":"Second","role":"editor"}`
	w, _ := doRequest(env.router, http.MethodPost, "/api/auth/signup", body)

	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup got status %d, want %d, body=%s", w.Code, http.StatusConflict, w.Body.String())
	}

	parsed := mustReadJSON(t, w)

	if parsed["code"] != "email_taken" {
		t.Fatalf("expected email_taken, got %v", parsed["code"])
	}
}

func TestAuthFlow_Login_InvalidCredentials(t *testing.T) {
	env := setupEnv(t)
	resetDB(t, env.pool)
	defer resetDB(t, env.pool)

	body := `{"email":"nope@example.com","password":"wrong"}`
	w, _ := doRequest(env.router, http.MethodPost, "/api/auth/login", body)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login(invalid creds) got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
}

func TestAuthFlow_RoleGates(t *testing.T) {
	env := setupEnv(t)
	resetDB(t, env.pool)
	defer resetDB(t, env.pool)

	editorSession, _, _ := signup(t, env, "ed@example.com", "Ed Itor", "editor")

	// an editor must not reach creator routes

	w, _ := doRequest(env.router, http.MethodGet, "/api/creator/videos", "", editorSession)

	if w.Code != http.StatusForbidden {
		t.Fatalf("editor on creator route got status %d, want %d, body=%s", w.Code, http.StatusForbidden, w.Body.String())
	}

	// no session at all

	w2, _ := doRequest(env.router, http.MethodGet, "/api/editor/videos", "")

	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous on editor route got status %d, want %d, body=%s", w2.Code, http.StatusUnauthorized, w2.Body.String())
	}
}
