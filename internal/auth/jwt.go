// internal/auth/jwt.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"labeleven-back/internal/apperr"
)

// TokenProvider signs and validates the bearer tokens used by the API.
// Subject is the user's email; the role travels in a dedicated claim.
type TokenProvider struct {
	secret []byte
	expiry time.Duration
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewTokenProvider(secret string, expiry time.Duration) *TokenProvider {
	return &TokenProvider{secret: []byte(secret), expiry: expiry}
}

func (p *TokenProvider) CreateToken(email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// ParseToken recovers the subject and role from a token. Expired, malformed
// and badly signed tokens all come back as the same invalid-token error so
// the response does not reveal which check failed.
func (p *TokenProvider) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.InvalidToken("invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, apperr.InvalidToken("invalid or expired token")
	}
	return claims, nil
}
