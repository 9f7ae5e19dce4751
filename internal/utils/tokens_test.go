package utils

import (
    "testing"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    secret := "test-secret"
    at, err := NewAccessToken(secret, 42, "facility_manager", 15)
    require.NoError(t, err)
    require.NotEmpty(t, at.Token)

    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    require.NoError(t, err)
    require.True(t, tok.Valid)

    claims, ok := tok.Claims.(jwt.MapClaims)
    require.True(t, ok)
    assert.Equal(t, float64(42), claims["sub"])
    assert.Equal(t, "facility_manager", claims["role"])
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
    at, err := NewAccessToken("secret-a", 1, "user", 15)
    require.NoError(t, err)

    _, err = jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte("secret-b"), nil
    })
    assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(30)
    require.NoError(t, err)
    b, err := NewRefreshToken(30)
    require.NoError(t, err)

    assert.Len(t, a.Raw, 96) // 48 random bytes hex encoded
    assert.NotEqual(t, a.Raw, b.Raw)
}

func TestHashRefreshRaw(t *testing.T) {
    h1 := HashRefreshRaw("token-value")
    h2 := HashRefreshRaw("token-value")
    assert.Equal(t, h1, h2)
    assert.Len(t, h1, 64) // sha256 hex
    assert.NotEqual(t, h1, HashRefreshRaw("other"))
}

func TestNewOTPCode(t *testing.T) {
    seen := map[string]bool{}
    for i := 0; i < 50; i++ {
        code, err := NewOTPCode()
        require.NoError(t, err)
        require.Len(t, code, OTPDigits)
        for _, r := range code {
            assert.True(t, r >= '0' && r <= '9')
        }
        seen[code] = true
    }
    // 50 draws out of a million values should not all collide.
    assert.Greater(t, len(seen), 1)
}
