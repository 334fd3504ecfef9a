package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(Config{
		SecretKey:           "test-secret-key-0123456789",
		Issuer:              "pharmacy-api",
		AccessTokenDuration: time.Hour,
	})
	require.NoError(t, err)
	return issuer
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)

	token, expiresAt, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestIssuer_Expired(t *testing.T) {
	issuer := newTestIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := issuer.Issue("user-1")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssuer_WrongSecret(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewIssuer(Config{
		SecretKey:           "another-secret-key-987654",
		Issuer:              "pharmacy-api",
		AccessTokenDuration: time.Hour,
	})
	require.NoError(t, err)

	token, _, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsNoneAlgorithm(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := gojwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "pharmacy-api",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_WrongIssuer(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewIssuer(Config{
		SecretKey:           "test-secret-key-0123456789",
		Issuer:              "someone-else",
		AccessTokenDuration: time.Hour,
	})
	require.NoError(t, err)

	token, _, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_Garbage(t *testing.T) {
	issuer := newTestIssuer(t)

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer(Config{AccessTokenDuration: time.Hour})
	assert.Error(t, err)

	_, err = NewIssuer(Config{SecretKey: "secret"})
	assert.Error(t, err)
}
