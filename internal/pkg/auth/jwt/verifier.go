package jwt

import (
	"errors"

	"minichat/internal/app/user"
)

// ErrUnauthenticated is the single classified failure for token verification.
// Missing, malformed, and expired tokens all collapse into this one outcome;
// callers never see the underlying parse error.
var ErrUnauthenticated = errors.New("unauthenticated: missing or invalid token")

// Verifier validates bearer tokens and resolves them to a user identity.
type Verifier struct {
	secretKey string
}

// NewVerifier returns a Verifier that validates tokens signed with secretKey.
func NewVerifier(secretKey string) *Verifier {
	return &Verifier{secretKey: secretKey}
}

// Verify validates the given bearer token and returns the identity it carries.
// An empty token is rejected immediately, before any signature verification.
func (v *Verifier) Verify(token string) (user.User, error) {
	if token == "" {
		return user.User{}, ErrUnauthenticated
	}

	payload, err := ParseToken(token, v.secretKey)
	if err != nil {
		return user.User{}, ErrUnauthenticated
	}

	return user.User{
		ID:       payload.ID,
		Username: payload.Username,
	}, nil
}
