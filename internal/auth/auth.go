// Package auth is the boundary to the credential collaborator. Token
// acquisition and refresh (OAuth/PKCE) live outside this program; callers
// here only ever ask for a currently valid token.
package auth

import (
	"context"
	"errors"
)

// ErrNoCredentials means no valid credential can be produced: the user never
// authenticated, or the stored token expired.
var ErrNoCredentials = errors.New("no valid credentials available")

// CredentialSource produces a valid bearer token for remote calls.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticSource serves one pre-acquired token, supplied via flag, config or
// environment.
type StaticSource struct {
	token string
}

// NewStaticSource wraps a raw token string.
func NewStaticSource(token string) *StaticSource {
	return &StaticSource{token: token}
}

// Token implements CredentialSource.
func (s *StaticSource) Token(context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoCredentials
	}
	return s.token, nil
}
