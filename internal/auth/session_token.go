package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims - содержимое cookie: ссылка на серверную сессию
type SessionClaims struct {
	jwt.RegisteredClaims
}

func (c *SessionClaims) SessionID() string { return c.ID }
func (c *SessionClaims) UserID() string    { return c.Subject }

// SignSessionToken подписывает ссылку на сессию (HS256)
func SignSessionToken(secret []byte, sessionID, userID string, issuedAt, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return token.SignedString(secret)
}

// ParseSessionToken проверяет подпись и срок действия
func ParseSessionToken(secret []byte, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}
