package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flarehq/flarepp/internal/auth"
	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/http/middlewares"
	"github.com/flarehq/flarepp/internal/repo/postgres"
	"github.com/flarehq/flarepp/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, params postgres.CreateUserParams) (user.User, error)
}

// GoogleVerifier checks a Google ID token server-side. We never trust a
// client-asserted email.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (auth.GoogleIdentity, error)
}

type AuthHandler struct {
	users        UserReader
	userWriter   UserWriter
	jwt          *auth.Manager
	google       GoogleVerifier
	refreshStore *postgres.RefreshTokensRepo
	cfg          config.Config
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, google GoogleVerifier, refreshStore *postgres.RefreshTokensRepo, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:        users,
		userWriter:   userWriter,
		jwt:          jwtManager,
		google:       google,
		refreshStore: refreshStore,
		cfg:          cfg,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=creator editor"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// accepted for frontend compatibility but ignored; the stored role wins
	Role string `json:"role"`
}

type GoogleLoginRequest struct {
	Credential string `json:"credential" binding:"required"`
	Role       string `json:"role" binding:"required,oneof=creator editor"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, err := user.ParseRole(req.Role)

	if err != nil {
		RespondBadRequest(ctx, "Role must be creator or editor.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.userWriter.Create(cctx, postgres.CreateUserParams{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         role,
	})

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	h.issueSession(ctx, cctx, u, http.StatusCreated)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	// google-only accounts have no password to check
	if !foundUser.HasPassword() {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	h.issueSession(ctx, cctx, foundUser, http.StatusOK)
}

// LoginWithGoogle verifies the ID token, then logs in the existing account
// or provisions a new one with the requested role. For existing accounts
// the stored role wins over whatever the client sent.
func (h *AuthHandler) LoginWithGoogle(ctx *gin.Context) {
	var req GoogleLoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role, err := user.ParseRole(req.Role)

	if err != nil {
		RespondBadRequest(ctx, "Role must be creator or editor.", nil)
		return
	}

	if h.google == nil {
		RespondError(ctx, http.StatusServiceUnavailable, "oauth_unavailable", "Google sign-in is not configured.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	identity, err := h.google.Verify(cctx, req.Credential)

	if err != nil {
		if errors.Is(err, auth.ErrOAuthUnavailable) {
			RespondError(ctx, http.StatusBadGateway, "oauth_unavailable", "Could not reach Google. Try again shortly.", nil)
			return
		}

		RespondUnAuthorized(ctx, "invalid_oauth", "Google sign-in could not be verified.")
		return
	}

	u, err := h.users.GetByEmail(cctx, identity.Email)

	if err != nil {
		if !errors.Is(err, postgres.ErrUserNotFound) {
			RespondInternal(ctx, "Could not sign in")
			return
		}

		u, err = h.userWriter.Create(cctx, postgres.CreateUserParams{
			Email:     identity.Email,
			Name:      identity.Name,
			AvatarURL: identity.AvatarURL,
			Role:      role,
		})

		if err != nil {
			// lost a race with a concurrent signup; load the winner
			if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
				u, err = h.users.GetByEmail(cctx, identity.Email)
			}

			if err != nil {
				RespondInternal(ctx, "Could not sign in")
				return
			}
		}
	}

	h.issueSession(ctx, cctx, u, http.StatusOK)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Account no longer exists.")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	RespondOK(ctx, gin.H{"user": u})
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)

	if err != nil || raw == "" {
		RespondUnAuthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	// rotation under a row lock so a replayed token cannot fork the session

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	row, err := h.refreshStore.GetForUpdate(cctx, tx, claims.JTI)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	if row.RevokedAt != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		RespondUnAuthorized(ctx, "expired_refresh", "Refresh token expired.")
		return
	}

	// hash must match the presented token (prevents token substitution)

	if row.TokenHash != h.jwt.HashRefreshToken(raw) {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(row.UserID, claims.Email, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	// revoke old, insert new

	err = h.refreshStore.Revoke(cctx, tx, row.ID, &newJTI)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	err = h.refreshStore.Create(cctx, tx, postgres.RefreshTokenRow{
		ID:        newJTI,
		UserID:    row.UserID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now().UTC(),
	})

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	err = tx.Commit(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	accessToken, accessExpiresAt, err := h.jwt.GenerateAccessToken(row.UserID, claims.Email, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.setSessionCookie(ctx, accessToken, accessExpiresAt)
	h.setRefreshCookie(ctx, newRaw, newExpiresAt)

	RespondOK(ctx, gin.H{"accessToken": accessToken})
}

// Logout clears both cookies and revokes the refresh token if one was
// presented. Always succeeds from the client's point of view.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	// clear up front so every return path below sends the Set-Cookie pair;
	// headers written after the body has flushed are lost
	h.clearSessionCookie(ctx)
	h.clearRefreshCookie(ctx)

	raw, err := ctx.Cookie(refreshCookieName)

	if err != nil || raw == "" {
		RespondOK(ctx, gin.H{"message": "Logged out."})
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		RespondOK(ctx, gin.H{"message": "Logged out."})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)
	if err != nil {
		RespondOK(ctx, gin.H{"message": "Logged out."})
		return
	}
	defer func() { _ = tx.Rollback(cctx) }()

	// revoke that one token (idempotent)
	_ = h.refreshStore.Revoke(cctx, tx, claims.JTI, nil)
	_ = tx.Commit(cctx)

	RespondOK(ctx, gin.H{"message": "Logged out."})
}

// Helper functions

// issueSession mints the access and refresh tokens, persists the refresh
// token hash and writes both cookies.
func (h *AuthHandler) issueSession(ctx *gin.Context, cctx context.Context, u user.User, status int) {
	accessToken, accessExpiresAt, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	rawRefreshToken, jti, refreshExpiresAt, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	err = h.storeRefreshToken(cctx, u.ID, jti, rawRefreshToken, refreshExpiresAt)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, accessToken, accessExpiresAt)
	h.setRefreshCookie(ctx, rawRefreshToken, refreshExpiresAt)

	respondSuccess(ctx, status, gin.H{
		"user":        u,
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) storeRefreshToken(ctx context.Context, userID, jti, raw string, expiresAt time.Time) error {
	tx, err := h.refreshStore.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = h.refreshStore.Create(ctx, tx, postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    userID,
		TokenHash: h.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const refreshCookieName = "refresh_token"

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	// Lax, not Strict: the SPA lives on a different subdomain
	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		middlewares.SessionCookieName,
		raw,
		int(time.Until(expiresAt).Seconds()),
		"/",
		"",
		secure,
		true, // HttpOnly
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.SessionCookieName, "", -1, "/", "", secure, true)
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteLaxMode)

	// scoped so it only rides on the auth endpoints
	ctx.SetCookie(
		refreshCookieName,
		raw,
		int(time.Until(expiresAt).Seconds()),
		"/api/auth",
		"",
		secure,
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(refreshCookieName, "", -1, "/api/auth", "", secure, true)
}
