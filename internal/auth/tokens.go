package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// SetupTokenBytes - 32 байта энтропии, 64 hex-символа
const SetupTokenBytes = 32

// GenerateToken возвращает случайный hex-токен
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
