package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewMaker(testSecret, 15*time.Minute)

	tests := []struct {
		name    string
		subject string
		role    string
	}{
		{name: "bot", subject: "telegram-bot", role: RoleBot},
		{name: "admin", subject: "ops@example.com", role: RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.subject, tt.role)
			require.NoError(t, err)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, claims.Subject)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestMaker_UnknownRole(t *testing.T) {
	maker := NewMaker(testSecret, time.Minute)
	_, err := maker.GenerateToken("x", "root")
	assert.ErrorIs(t, err, ErrUnknownRole)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "root"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestMaker_NoExpiry(t *testing.T) {
	maker := NewMaker(testSecret, 0)
	token, err := maker.GenerateToken("bot", RoleBot)
	require.NoError(t, err)

	maker.now = func() time.Time { return time.Now().AddDate(10, 0, 0) }
	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestMaker_ParseInvalid(t *testing.T) {
	maker := NewMaker(testSecret, 15*time.Minute)
	valid, err := maker.GenerateToken("bot", RoleBot)
	require.NoError(t, err)

	expired, err := NewMaker(testSecret, -time.Hour).GenerateToken("bot", RoleBot)
	require.NoError(t, err)

	foreign, err := NewMaker("another_secret", time.Hour).GenerateToken("bot", RoleBot)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleBot}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "malformed", token: "invalid.token.here"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "tampered", token: valid + "tampered"},
		{name: "unsigned", token: none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
