package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestVerifierRoundTrip(t *testing.T) {
	req := require.New(t)

	payload := &Payload{ID: "u-alice", Username: "alice"}
	token, err := GenerateToken(payload, testSecret, UserIdentityExpiration)
	req.NoError(err)
	req.NotEmpty(token)

	verifier := NewVerifier(testSecret)
	identity, err := verifier.Verify(token)
	req.NoError(err)
	req.Equal("u-alice", identity.ID)
	req.Equal("alice", identity.Username)
}

func TestVerifierRejectsEmptyToken(t *testing.T) {
	req := require.New(t)

	verifier := NewVerifier(testSecret)
	_, err := verifier.Verify("")
	req.ErrorIs(err, ErrUnauthenticated)
}

func TestVerifierRejectsMalformedToken(t *testing.T) {
	req := require.New(t)

	verifier := NewVerifier(testSecret)
	_, err := verifier.Verify("not.a.jwt")
	req.ErrorIs(err, ErrUnauthenticated)
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	req := require.New(t)

	payload := &Payload{ID: "u-alice", Username: "alice"}
	token, err := GenerateToken(payload, testSecret, -time.Minute)
	req.NoError(err)

	verifier := NewVerifier(testSecret)
	_, err = verifier.Verify(token)
	req.ErrorIs(err, ErrUnauthenticated)
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	payload := &Payload{ID: "u-alice", Username: "alice"}
	token, err := GenerateToken(payload, testSecret, UserIdentityExpiration)
	req.NoError(err)

	verifier := NewVerifier("a-different-secret")
	_, err = verifier.Verify(token)
	req.ErrorIs(err, ErrUnauthenticated)
}

func TestParseTokenCarriesStandardClaims(t *testing.T) {
	req := require.New(t)

	payload := &Payload{ID: "u-bob", Username: "bob"}
	token, err := GenerateToken(payload, testSecret, time.Hour)
	req.NoError(err)

	parsed, err := ParseToken(token, testSecret)
	req.NoError(err)
	req.Equal(TokenIssuer, parsed.Issuer)
	req.Greater(parsed.ExpiresAt, time.Now().Unix())
}
