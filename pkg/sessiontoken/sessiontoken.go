// Package sessiontoken issues and validates the bearer tokens that tie a
// browser tab to its server-side game session. Tokens are HS256-signed JWTs:
// they are minted and verified by the same process, so a shared secret is
// enough and no key distribution is involved.
package sessiontoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered JWT claims; the player ID travels in the
// subject field.
type Claims struct {
	jwt.RegisteredClaims
}

// Service signs and validates session tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func New(secret string, issuer string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("session token secret must not be empty")
	}
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// TokenInfo is the issued token plus its expiry, for the session response.
type TokenInfo struct {
	Token     string
	ExpiresAt time.Time
}

// Issue creates a signed token for the given player.
func (s *Service) Issue(playerID uuid.UUID) (*TokenInfo, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   playerID.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &TokenInfo{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses and verifies a token and returns the player ID it was
// issued for.
func (s *Service) Validate(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid session token claims")
	}
	if claims.Issuer != s.issuer {
		return uuid.Nil, fmt.Errorf("invalid issuer: expected %s, got %s", s.issuer, claims.Issuer)
	}

	playerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return playerID, nil
}
