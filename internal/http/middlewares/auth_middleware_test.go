package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/flarehq/flarepp/internal/auth"
	"github.com/flarehq/flarepp/internal/domain/user"
)

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	return f.verifyFn(token)
}

func okVerifier(role user.Role) *fakeVerifier {
	return &fakeVerifier{
		verifyFn: func(token string) (*auth.Claims, error) {
			if token != "good-token" {
				return nil, auth.ErrInvalidToken
			}

			return &auth.Claims{
				UserID: "user-1",
				Email:  "sam@example.com",
				Role:   role,
			}, nil
		},
	}
}

func sessionTestRouter(verifier TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	mw := NewAuthMiddleware(verifier)

	r := gin.New()

	chain := append([]gin.HandlerFunc{mw.RequireSession()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := UserIDFromContext(c)
		role, _ := RoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})

	r.GET("/protected", chain...)

	return r
}

func TestRequireSession_CookieAccepted(t *testing.T) {
	r := sessionTestRouter(okVerifier(user.RoleCreator))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good-token"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["id"] != "user-1" || body["role"] != "creator" {
		t.Fatalf("context not populated: %v", body)
	}
}

func TestRequireSession_BearerFallback(t *testing.T) {
	r := sessionTestRouter(okVerifier(user.RoleEditor))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestRequireSession_MissingToken(t *testing.T) {
	r := sessionTestRouter(okVerifier(user.RoleCreator))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["success"] != false || body["code"] != "unauthorized" {
		t.Fatalf("unexpected error body: %s", w.Body.String())
	}
}

func TestRequireSession_ExpiredToken(t *testing.T) {
	verifier := &fakeVerifier{
		verifyFn: func(string) (*auth.Claims, error) {
			return nil, auth.ErrExpiredToken
		},
	}

	r := sessionTestRouter(verifier)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["message"] != "Session expired" {
		t.Fatalf("expected expiry message, got %s", w.Body.String())
	}
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	verifier := okVerifier(user.RoleCreator)
	mw := NewAuthMiddleware(verifier)

	r := sessionTestRouter(verifier, mw.RequireRole(user.RoleCreator))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good-token"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestRequireRole_RejectsOtherRole(t *testing.T) {
	verifier := okVerifier(user.RoleEditor)
	mw := NewAuthMiddleware(verifier)

	r := sessionTestRouter(verifier, mw.RequireRole(user.RoleCreator))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good-token"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403, body=%s", w.Code, w.Body.String())
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["code"] != "forbidden" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRequireRole_UnknownRoleInToken(t *testing.T) {
	verifier := okVerifier(user.Role("superadmin"))
	mw := NewAuthMiddleware(verifier)

	r := sessionTestRouter(verifier, mw.RequireRole(user.RoleCreator, user.RoleEditor))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good-token"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown role should not pass, got status %d", w.Code)
	}
}

func TestRequireSession_RejectionCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewAuthMiddleware(okVerifier(user.RoleCreator))

	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", mw.RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Request-Id", "rid-123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["requestId"] != "rid-123" {
		t.Fatalf("rejection must echo the request id, body=%s", w.Body.String())
	}
}

func TestRequireRole_RejectionCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw := NewAuthMiddleware(okVerifier(user.RoleEditor))

	r := gin.New()
	r.Use(RequestID())
	r.GET("/creator-only", mw.RequireSession(), mw.RequireRole(user.RoleCreator), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/creator-only", nil)
	req.Header.Set("X-Request-Id", "rid-456")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good-token"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", w.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["requestId"] != "rid-456" {
		t.Fatalf("rejection must echo the request id, body=%s", w.Body.String())
	}
}
