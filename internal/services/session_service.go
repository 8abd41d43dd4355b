package services

import (
	"fmt"
	"time"

	"signupvault/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	jwt.RegisteredClaims
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type SessionServiceConfig struct {
	Secret string
	TTL    time.Duration
}

type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(config SessionServiceConfig) *SessionService {
	return &SessionService{
		secret: []byte(config.Secret),
		ttl:    config.TTL,
	}
}

func (ss *SessionService) TTL() time.Duration {
	return ss.ttl
}

func (ss *SessionService) Issue(user *model.User) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ss.ttl)),
		},
		Email: user.Email,
		Role:  user.Role,
	})

	signed, err := token.SignedString(ss.secret)

	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}

	return signed, nil
}

func (ss *SessionService) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return ss.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
