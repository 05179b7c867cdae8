package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flarehq/flarepp/internal/auth"
	"github.com/flarehq/flarepp/internal/config"
	apphttp "github.com/flarehq/flarepp/internal/http"
	"github.com/flarehq/flarepp/internal/queue/redisclient"
)

const testBucket = "test-bucket"

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLDays:   7,
		S3Bucket:            testBucket,
		MaxUploadBytes:      1 << 20, // small cap so limit tests stay cheap
		AllowedOrigins:      []string{"http://localhost:5173"},
	}
}

// fakeGoogle verifies any credential of the form "ok:<email>:<name>".
type fakeGoogle struct{}

func (fakeGoogle) Verify(_ context.Context, raw string) (auth.GoogleIdentity, error) {
	var email, name string

	_, err := fmt.Sscanf(raw, "ok:%s", &email)

	if err != nil {
		return auth.GoogleIdentity{}, auth.ErrInvalidIDToken
	}

	name = "Google User"

	return auth.GoogleIdentity{
		Subject: "sub-" + email,
		Email:   email,
		Name:    name,
	}, nil
}

// memMedia is an in-memory MediaStore so tests never touch S3.
type memMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemMedia() *memMedia {
	return &memMedia{objects: map[string][]byte{}}
}

func (m *memMedia) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(body)

	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objects[key] = b
	m.mu.Unlock()

	return "http://media.local/" + testBucket + "/" + key, nil
}

func (m *memMedia) Download(_ context.Context, key string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	b, ok := m.objects[key]
	m.mu.Unlock()

	if !ok {
		return nil, 0, fmt.Errorf("no such object %q", key)
	}

	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

func (m *memMedia) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

type testEnv struct {
	router *gin.Engine
	pool   *pgxpool.Pool
	media  *memMedia
	cfg    config.Config
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	cfg := testConfig()
	media := newMemMedia()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := apphttp.NewRouter(apphttp.RouterDeps{
		Cfg:    cfg,
		Log:    log,
		Pool:   pool,
		Redis:  redisclient.New(redisclient.Config{Addr: "127.0.0.1:1"}), // never dialed in tests
		JWT:    auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Google: fakeGoogle{},
		Media:  media,
	})

	return &testEnv{router: router, pool: pool, media: media, cfg: cfg}
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE jobs, refresh_tokens, preferred_editors, videos, users
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func doRequest(router http.Handler, method, path string, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Response) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Result()
}

func doMultipart(router http.Handler, path string, fields map[string]string, files map[string][]byte, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Response) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}

	for name, content := range files {
		fw, _ := mw.CreateFormFile(name, name+".mp4")
		_, _ = fw.Write(content)
	}

	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Result()
}

func mustReadJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	out := map[string]any{}

	err := json.Unmarshal(w.Body.Bytes(), &out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}

	return out
}

func cookieByName(t *testing.T, response *http.Response, name string) *http.Cookie {
	t.Helper()

	for _, c := range response.Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}

	t.Fatalf("%s cookie not found in response", name)

	return nil
}

// signup creates an account through the API and hands back the session and
// refresh cookies.
func signup(t *testing.T, env *testEnv, email, name, role string) (*http.Cookie, *http.Cookie, string) {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":"password123","name":%q,"role":%q}`, email, name, role)

	w, response := doRequest(env.router, http.MethodPost, "/api/auth/signup", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	parsed := mustReadJSON(t, w)

	u, _ := parsed["user"].(map[string]any)
	id, _ := u["id"].(string)

	if id == "" {
		t.Fatalf("signup expected user id, body=%s", w.Body.String())
	}

	return cookieByName(t, response, "session"), cookieByName(t, response, "refresh_token"), id
}
