// internal/auth/auth_test.go
package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	Init()
	userID := uuid.New()

	token, err := CreateJWT(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTRejectsTampering(t *testing.T) {
	Init()
	token, err := CreateJWT(uuid.New())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = AuthenticateJWT(tampered)
	assert.Error(t, err)

	_, err = AuthenticateJWT("not-a-token")
	assert.Error(t, err)
}

func TestJWTRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateJWT(uuid.New())
	require.NoError(t, err)

	// Rotate the key pair; previously issued tokens must die with it.
	Init()
	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestJWTRejectsNonUUIDSubject(t *testing.T) {
	Init()
	raw := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": "player-one"})
	token, err := raw.SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)
	assert.NotContains(t, hash, "hunter2")

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashRejectsGarbage(t *testing.T) {
	_, err := ComparePasswordAndHash("hunter2", "plaintext-not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
