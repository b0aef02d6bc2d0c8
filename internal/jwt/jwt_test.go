package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devdual/BattleRoomManagerService/internal/jwt"
)

func TestGenerateAndValidate(t *testing.T) {
	m := jwt.NewJWTManager("test-secret")

	token, err := m.GenerateToken("u1", "ROOM1234", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "ROOM1234", claims.RoomID)
}

func TestGenerateToken_EmptyUser(t *testing.T) {
	m := jwt.NewJWTManager("test-secret")

	_, err := m.GenerateToken("", "", time.Minute)
	require.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := jwt.NewJWTManager("secret-a")
	verifier := jwt.NewJWTManager("secret-b")

	token, err := issuer.GenerateToken("u1", "", time.Minute)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	m := jwt.NewJWTManager("test-secret")

	token, err := m.GenerateToken("u1", "", -time.Minute)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	m := jwt.NewJWTManager("test-secret")

	_, err := m.ValidateToken("")
	require.Error(t, err)

	_, err = m.ValidateToken("not.a.token")
	require.Error(t, err)
}
