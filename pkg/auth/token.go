package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintRememberToken issues a signed token naming the authenticated account.
// A zero TTL produces a token without expiry.
func MintRememberToken(cfg config.SessionConfig, now time.Time, payload RememberPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("session secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("session issuer is required")
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	registered := jwt.RegisteredClaims{
		Issuer:   cfg.Issuer,
		Subject:  email,
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}
	if ttl := cfg.TTL(); ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwtSigningMethod, RememberClaims{Role: payload.Role, RegisteredClaims: registered})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing remember token: %w", err)
	}
	return signed, nil
}

// ParseRememberToken validates the token string and returns typed claims.
func ParseRememberToken(cfg config.SessionConfig, tokenString string) (*RememberClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	claims := &RememberClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.Email() == "" {
		return nil, fmt.Errorf("remember token has no subject")
	}

	return claims, nil
}
