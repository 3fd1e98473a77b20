package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const MinSecretLength = 32

// RelayClaims identify the chat relay presenting a token. There are no
// end-user sessions.
type RelayClaims struct {
	Relay string `json:"relay"`
	jwt.RegisteredClaims
}

func checkSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("relay secret is required but not set")
	}
	if len(secret) < MinSecretLength {
		return fmt.Errorf("relay secret must be at least %d characters long", MinSecretLength)
	}
	return nil
}

func GenerateRelayToken(secret, relay string, ttl time.Duration) (string, error) {
	if err := checkSecret(secret); err != nil {
		return "", fmt.Errorf("cannot generate relay token: %w", err)
	}
	if relay == "" {
		return "", fmt.Errorf("cannot generate relay token: relay name is required")
	}

	now := time.Now()
	claims := RelayClaims{
		Relay: relay,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "relay_" + relay,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateRelayToken(secret, tokenString string) (*RelayClaims, error) {
	if err := checkSecret(secret); err != nil {
		return nil, fmt.Errorf("cannot validate relay token: %w", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &RelayClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*RelayClaims); ok && token.Valid && claims.Relay != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
