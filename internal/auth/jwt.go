package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"esculapi/internal/domain"
)

// TokenManager выпускает и проверяет JWT доступа.
// Токен несёт только идентификатор пользователя и роли; профили
// загружаются заново на каждый запрос.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	Roles []domain.Role `json:"roles"`
	jwt.RegisteredClaims
}

func (m *TokenManager) Issue(u *domain.User) (string, error) {
	now := time.Now()
	c := claims{
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Parse возвращает ID пользователя из валидного токена
func (m *TokenManager) Parse(token string) (int64, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !parsed.Valid {
		return 0, errors.New("invalid token")
	}
	var id int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &id); err != nil || id <= 0 {
		return 0, errors.New("invalid token subject")
	}
	return id, nil
}
