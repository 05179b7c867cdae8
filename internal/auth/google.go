package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

var (
	ErrOAuthUnavailable = errors.New("oauth provider unavailable")
	ErrInvalidIDToken   = errors.New("invalid google id token")
)

// GoogleIdentity is what we trust after the ID token has been verified
// server-side. The backend never accepts a bare client-asserted email.
type GoogleIdentity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's OIDC configuration and builds a
// verifier pinned to our client ID as audience.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}

	provider, err := oidc.NewProvider(ctx, googleIssuer)

	if err != nil {
		return nil, fmt.Errorf("discover google oidc provider: %w", err)
	}

	return &GoogleVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (GoogleIdentity, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)

	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	err = idToken.Claims(&claims)

	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	if claims.Email == "" || !claims.EmailVerified {
		return GoogleIdentity{}, ErrInvalidIDToken
	}

	return GoogleIdentity{
		Subject:   idToken.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}, nil
}
