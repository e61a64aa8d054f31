// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity resolves the caller on whose behalf a lookup runs.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ommathur/quickpick/pkg/types"
)

// Provider returns the current user or types.ErrUnauthenticated.
type Provider interface {
	CurrentUser(ctx context.Context) (types.Caller, error)
}

// New selects a provider from cfg: a token provider when a JWT secret is
// configured, otherwise the static development identity.
func New(cfg types.IdentityConfig) Provider {
	if cfg.JWTSecret != "" {
		return &TokenProvider{Verifier: NewVerifier(cfg.JWTSecret), Token: cfg.AccessToken}
	}
	return StaticProvider{UserID: cfg.UserID}
}

// Claims are the access-token claims the auth service issues.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Verifier validates HS256 access tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for the shared signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates token. The subject claim becomes the caller
// ID. Every failure is reported as types.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (types.Caller, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return types.Caller{}, fmt.Errorf("%w: no access token", types.ErrUnauthenticated)
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return types.Caller{}, fmt.Errorf("%w: %w", types.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return types.Caller{}, fmt.Errorf("%w: %w", types.ErrUnauthenticated, jwt.ErrTokenSignatureInvalid)
	}
	if claims.Subject == "" {
		return types.Caller{}, fmt.Errorf("%w: token has no subject", types.ErrUnauthenticated)
	}
	return types.Caller{ID: claims.Subject, Email: claims.Email}, nil
}

// TokenProvider verifies a fixed access token, typically the one a CLI
// user saved under .secrets/access-token.
type TokenProvider struct {
	Verifier *Verifier
	Token    string
}

// CurrentUser implements Provider.
func (p *TokenProvider) CurrentUser(context.Context) (types.Caller, error) {
	return p.Verifier.Verify(p.Token)
}

// StaticProvider returns a fixed development identity.
type StaticProvider struct {
	UserID string
}

// CurrentUser implements Provider.
func (p StaticProvider) CurrentUser(context.Context) (types.Caller, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return types.Caller{}, fmt.Errorf("%w: no user configured", types.ErrUnauthenticated)
	}
	return types.Caller{ID: p.UserID}, nil
}

type callerKey struct{}

// ContextWithCaller returns a context carrying c.
func ContextWithCaller(ctx context.Context, c types.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored by ContextWithCaller.
func CallerFromContext(ctx context.Context) (types.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(types.Caller)
	return c, ok && c.ID != ""
}

// ContextProvider reads the caller that request middleware placed in the
// context.
type ContextProvider struct{}

// CurrentUser implements Provider.
func (ContextProvider) CurrentUser(ctx context.Context) (types.Caller, error) {
	if c, ok := CallerFromContext(ctx); ok {
		return c, nil
	}
	return types.Caller{}, errors.Join(types.ErrUnauthenticated, errors.New("no caller in request context"))
}
