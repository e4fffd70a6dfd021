package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer(secret, time.Hour)

	tok, err := issuer.Issue("u-1", "ann@example.com")
	require.NoError(t, err)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "ann@example.com", claims.Email)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer(secret, time.Hour).Issue("u-1", "ann@example.com")
	require.NoError(t, err)

	_, err = NewTokenIssuer("another-secret-another-secret-xx", time.Hour).Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(secret, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, err := issuer.Issue("u-1", "ann@example.com")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokenIssuer(secret, time.Hour).Parse("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	ok, err := CheckPassword(hash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CheckPassword("", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetToken(t *testing.T) {
	tok, hash, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.Equal(t, HashResetToken(tok), hash)
	assert.NotEqual(t, tok, hash)

	tok2, _, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, tok, tok2)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{Email: "a@b.c"})
	c, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", c.Email)
}
