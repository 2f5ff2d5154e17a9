// Package jwt выпускает и проверяет токены доверенных клиентов API:
// чат-бота и администраторов.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Роли клиентов.
const (
	RoleBot   = "bot"
	RoleAdmin = "admin"
)

// ErrUnknownRole роль не входит в список известных.
var ErrUnknownRole = errors.New("unknown role")

// Claims данные токена клиента.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Maker выпуск и разбор токенов.
type Maker interface {
	GenerateToken(subject, role string) (string, error)
	ParseToken(tokenStr string) (*Claims, error)
}

// HMACMaker подписывает токены HS256 общим секретом.
type HMACMaker struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewMaker создаёт HMACMaker. При ttl == 0 токен бессрочный.
func NewMaker(secretKey string, ttl time.Duration) *HMACMaker {
	return &HMACMaker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// GenerateToken выпускает токен для клиента subject с ролью role.
func (m *HMACMaker) GenerateToken(subject, role string) (string, error) {
	const op = "jwt.GenerateToken"
	if role != RoleBot && role != RoleAdmin {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownRole, role)
	}
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.tokenTTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.tokenTTL))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ParseToken проверяет подпись и срок действия токена.
func (m *HMACMaker) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Role != RoleBot && claims.Role != RoleAdmin {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownRole, claims.Role)
	}
	return claims, nil
}
