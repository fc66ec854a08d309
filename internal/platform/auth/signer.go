package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 15 * time.Minute

// Signer mints short-lived HS256 bearer tokens for the API client.
type Signer struct {
	key     []byte
	issuer  string
	subject string
	roles   []string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret, issuer, subject string, roles ...string) *Signer {
	if len(roles) == 0 {
		roles = []string{RoleClinician}
	}
	return &Signer{
		key:     []byte(secret),
		issuer:  issuer,
		subject: subject,
		roles:   roles,
		ttl:     defaultTokenTTL,
		now:     time.Now,
	}
}

func (s *Signer) Token() (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   s.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Roles: s.roles,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}
