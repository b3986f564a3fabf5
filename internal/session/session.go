// Package session describes the signed-in DocsOps user and supplies the
// bearer token for API requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/five82/docwatch/internal/docsops"
)

// User is an authenticated presence. Two users are the same session when
// their IDs match.
type User struct {
	ID          string
	Email       string
	Name        string
	AccessToken string
	ExpiresAt   time.Time // zero means no expiry claim
}

// Ensure User satisfies docsops.TokenSource at compile time.
var _ docsops.TokenSource = (*User)(nil)

// ErrInvalidToken reports a token that is not a readable JWT.
var ErrInvalidToken = errors.New("invalid session token")

// Parse reads identity claims from a JWT without verifying its signature.
// The server verifies tokens; the client only needs to know who is signed in
// and when the token lapses.
func Parse(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	user := &User{
		ID:          stringClaim(claims, "sub"),
		Email:       stringClaim(claims, "email"),
		Name:        stringClaim(claims, "name"),
		AccessToken: token,
	}
	if user.ID == "" {
		user.ID = stringClaim(claims, "user_id")
	}
	if user.ID == "" {
		user.ID = user.Email
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: no subject claim", ErrInvalidToken)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		user.ExpiresAt = exp.Time
	}
	return user, nil
}

// FromToken accepts either a JWT or an opaque token. Opaque tokens get a
// stable name-based identifier so the same token maps to the same session.
func FromToken(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, docsops.ErrUnauthenticated
	}
	if user, err := Parse(token); err == nil {
		return user, nil
	}
	return &User{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String(),
		AccessToken: token,
	}, nil
}

// LoadToken reads a token from a file, trimming surrounding whitespace.
// A missing file yields an empty token and no error.
func LoadToken(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Expired reports whether the token has lapsed at now.
func (u *User) Expired(now time.Time) bool {
	if u == nil {
		return true
	}
	return !u.ExpiresAt.IsZero() && !now.Before(u.ExpiresAt)
}

// Same reports whether u and other describe the same session.
func (u *User) Same(other *User) bool {
	if u == nil || other == nil {
		return u == nil && other == nil
	}
	return u.ID == other.ID
}

// DisplayName returns the best human label for the user.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return "signed out"
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// Token implements docsops.TokenSource.
func (u *User) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if u == nil || strings.TrimSpace(u.AccessToken) == "" {
		return "", docsops.ErrUnauthenticated
	}
	if u.Expired(time.Now()) {
		return "", fmt.Errorf("%w: token expired at %s", docsops.ErrUnauthenticated, u.ExpiresAt.Format(time.RFC3339))
	}
	return u.AccessToken, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return strings.TrimSpace(val)
	}
	return ""
}
