package auth

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWith(t *testing.T, method jwtlib.SigningMethod, key interface{}, claims jwtlib.Claims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	tok, exp, err := tokens.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestParse_Expired(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := tokens.Issue("user-1")
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(tok)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestParse_Invalid(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	exp := jwtlib.NewNumericDate(time.Now().Add(time.Hour))

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"empty":        "",
		"three dots":   "a.b.c",
		"other secret": signWith(t, jwtlib.SigningMethodHS256, []byte("other"), &Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "u", ExpiresAt: exp}}),
		"no subject":   signWith(t, jwtlib.SigningMethodHS256, []byte("test-secret"), &Claims{RegisteredClaims: jwtlib.RegisteredClaims{ExpiresAt: exp}}),
		"no expiry":    signWith(t, jwtlib.SigningMethodHS256, []byte("test-secret"), &Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "u"}}),
		"wrong alg":    signWith(t, jwtlib.SigningMethodHS512, []byte("test-secret"), &Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "u", ExpiresAt: exp}}),
		"alg none":     signWith(t, jwtlib.SigningMethodNone, jwtlib.UnsafeAllowNoneSignatureType, &Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "u", ExpiresAt: exp}}),
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := tokens.Parse(tok)
			assert.Nil(t, claims)
			assert.Equal(t, ErrInvalidToken, err)
		})
	}
}
