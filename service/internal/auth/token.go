// internal/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	engine "github.com/feng-mou-mou/Railof1914/engine"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the lifetime of a minted bearer token.
const TokenTTL = time.Hour

// Claims identify the faction a client acts for within a session.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 tokens. A Signer with an empty secret is
// disabled and mints nothing.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a signer for secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Enabled reports whether a secret is configured.
func (s *Signer) Enabled() bool { return s != nil && len(s.secret) > 0 }

// Mint creates a token whose subject is the faction's wire name.
func (s *Signer) Mint(sessionID uuid.UUID, f engine.Faction) (string, error) {
	if !s.Enabled() {
		return "", errors.New("auth: signer has no secret")
	}
	now := s.now()
	claims := Claims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   f.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    "westfront",
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Parse verifies a token and returns its claims.
func (s *Signer) Parse(token string) (*Claims, error) {
	if !s.Enabled() {
		return nil, errors.New("auth: signer has no secret")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return claims, nil
}

// Faction returns the faction named in the token subject.
func (c *Claims) Faction() (engine.Faction, bool) {
	return engine.ParseFaction(c.Subject)
}
