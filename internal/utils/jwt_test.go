package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken_CarriesIdentityClaims(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "alice@x.com", "Alice Johnson", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	require.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.EqualValues(t, 42, claims["sub"])
	require.Equal(t, "alice@x.com", claims["email"])
	require.Equal(t, "Alice Johnson", claims["name"])
}

func TestNewAccessToken_WrongSecretRejected(t *testing.T) {
	at, err := NewAccessToken("right", 1, "a@x.com", "A", 5)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	})
	require.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)

	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	require.Equal(t, h1, h2)
	require.NotEqual(t, rt.Raw, h1)
	require.Len(t, h1, 64)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "S3cret"))
	require.False(t, VerifyPassword("not-a-hash", "s3cret"))
}
