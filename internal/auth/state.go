package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// stateTTL bounds how long an authorization redirect may stay pending.
const stateTTL = 10 * time.Minute

type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// signState mints the OAuth state parameter: a signed token carrying the
// server-side nonce, so a forged state fails before any storage lookup.
func signState(secret, nonce string, now time.Time) (string, error) {
	claims := stateClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// verifyState checks the signature and expiry and returns the nonce.
func verifyState(secret, state string, now time.Time) (string, error) {
	if strings.TrimSpace(state) == "" {
		return "", fmt.Errorf("state is required")
	}
	var claims stateClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if _, err := parser.ParseWithClaims(state, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}); err != nil {
		return "", fmt.Errorf("verify state: %w", err)
	}
	if strings.TrimSpace(claims.Nonce) == "" {
		return "", fmt.Errorf("state carries no nonce")
	}
	return claims.Nonce, nil
}
