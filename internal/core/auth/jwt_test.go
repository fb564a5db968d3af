package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-market/internal/core/config"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "estate-market", TTL: time.Hour}
}

func TestIssueParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, "admin", c.Role)
}

func TestParse_Rejects(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)

	other := newJWTer()
	other.Secret = []byte("another")
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIss := newJWTer()
	wrongIss.Issuer = "someone-else"
	_, err = wrongIss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := newJWTer()
	expired.TTL = -2 * time.Hour
	old, err := expired.Issue("u1", "user")
	require.NoError(t, err)
	_, err = j.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = j.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNoneAlg(t *testing.T) {
	j := newJWTer()
	claims := Claims{UID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: j.Issuer}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_EmptySecret(t *testing.T) {
	_, err := (&JWTer{}).Issue("u1", "user")
	assert.Error(t, err)
}

func TestParse_LeewayAndUniqueIDs(t *testing.T) {
	j := newJWTer()
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return issued }
	a, err := j.Issue("u1", "user")
	require.NoError(t, err)
	b, err := j.Issue("u1", "user")
	require.NoError(t, err)

	ca, err := j.Parse(a)
	require.NoError(t, err)
	cb, err := j.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
	assert.Equal(t, "u1", ca.Subject)

	j.now = func() time.Time { return issued.Add(j.TTL + 30*time.Second) }
	_, err = j.Parse(a)
	assert.NoError(t, err)

	j.now = func() time.Time { return issued.Add(j.TTL + 2*time.Minute) }
	_, err = j.Parse(a)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewJWTer(t *testing.T) {
	j := NewJWTer(config.JWT{Secret: "s", Issuer: "iss", AccessTokenTTLMin: 5})
	assert.Equal(t, []byte("s"), j.Secret)
	assert.Equal(t, 5*time.Minute, j.TTL)
}
