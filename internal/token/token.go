// Package token mints and verifies the signed bearer tokens handed out at
// login. A token that verifies is necessary but not sufficient for access:
// the session row is what revokes it.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/carebridge/portal-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers routine rejection: bad signature, wrong
	// algorithm or issuer, expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMalformedToken means the input is not a JWT at all.
	ErrMalformedToken = errors.New("malformed token")
)

// Claims is the minimal claim set carried by a bearer token. Subject holds the
// user id.
type Claims struct {
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Payload is the input to Issue.
type Payload struct {
	UserID    uuid.UUID
	Email     string
	Role      models.Role
	FirstName string
	LastName  string
}

// PayloadFor builds the claim payload of a user.
func PayloadFor(u *models.User) Payload {
	return Payload{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret, issuer string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Key is the HMAC key, shared with the fiber JWT middleware.
func (c *Codec) Key() []byte { return c.secret }

func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for p. Each token carries a random jti, so two logins in
// the same second still yield distinct tokens.
func (c *Codec) Issue(p Payload) (string, error) {
	now := c.now()
	claims := Claims{
		Email:     p.Email,
		Role:      p.Role,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.UserID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and embedded expiry of raw and returns its
// claims.
func (c *Codec) Verify(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims, nil
}
