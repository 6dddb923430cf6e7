package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    at, err := NewAccessToken("secret", 42, "EMPRENDEDOR", 15)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

    cl, err := ParseAccessToken("secret", at.Token)
    require.NoError(t, err)
    assert.Equal(t, uint64(42), cl.UsuarioID)
    assert.Equal(t, "EMPRENDEDOR", cl.Rol)

    _, err = ParseAccessToken("other", at.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Rejects(t *testing.T) {
    expired, err := NewAccessToken("secret", 1, "USUARIO", -1)
    require.NoError(t, err)
    _, err = ParseAccessToken("secret", expired.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    numericSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": 7, "exp": time.Now().Add(time.Minute).Unix(),
    })
    raw, err := numericSub.SignedString([]byte("secret"))
    require.NoError(t, err)
    _, err = ParseAccessToken("secret", raw)
    assert.ErrorIs(t, err, ErrInvalidToken)

    _, err = ParseAccessToken("secret", "not-a-jwt")
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
    rt, err := NewRefreshToken(7)
    require.NoError(t, err)
    assert.Len(t, rt.Raw, 96)
    assert.Len(t, HashRefreshRaw(rt.Raw), 64)
    assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))

    other, err := NewRefreshToken(7)
    require.NoError(t, err)
    assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestPassword(t *testing.T) {
    h, err := HashPassword("clave123", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(h, "clave123"))
    assert.False(t, VerifyPassword(h, "otra"))
}
