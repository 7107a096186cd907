package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken_ReadsClaims(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	token := signed(t, jwt.MapClaims{
		"id":   "665f1c",
		"name": "Ada",
		"exp":  exp.Unix(),
	})

	info, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "665f1c", info.UserID)
	assert.Equal(t, "Ada", info.Name)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(exp.Add(-time.Minute)))
	assert.True(t, info.Expired(exp))
}

func TestInspectToken_ClaimPrecedence(t *testing.T) {
	info, err := InspectToken(signed(t, jwt.MapClaims{"sub": float64(42), "userId": "u-7"}))
	require.NoError(t, err)
	assert.Equal(t, "u-7", info.UserID)

	info, err = InspectToken(signed(t, jwt.MapClaims{"sub": float64(42)}))
	require.NoError(t, err)
	assert.Equal(t, "42", info.UserID)
	assert.False(t, info.Expired(time.Now()))
}

func TestInspectToken_Opaque(t *testing.T) {
	_, err := InspectToken("plain-api-key")
	assert.ErrorIs(t, err, ErrOpaqueToken)
}
