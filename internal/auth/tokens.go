// Package auth issues and verifies the HS256 bearer tokens used by the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// Issuer is written to and required in the iss claim.
const Issuer = "booze-del"

const (
	claimEmail = "email"
	claimRole  = "role"
)

// ErrInvalidToken is returned for any token that fails parsing or validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Tokens signs and verifies tokens with a single shared secret.
type Tokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokens creates a token service for secret. Tokens it issues expire after ttl.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user.
func (t *Tokens) Issue(user *models.User) (string, error) {
	now := t.now()
	tok, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(user.ID.String()).
		IssuedAt(now).
		Expiration(now.Add(t.ttl)).
		Claim(claimEmail, user.Email).
		Claim(claimRole, string(user.Role)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.key))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify checks the signature, expiry and issuer of raw and returns its identity.
func (t *Tokens) Verify(raw string) (*models.Identity, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, t.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithClock(jwt.ClockFunc(t.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	id := &models.Identity{
		UserID: userID,
		Exp:    token.Expiration().Unix(),
		Role:   models.RoleCustomer,
	}
	if email, ok := token.Get(claimEmail); ok {
		if s, ok := email.(string); ok {
			id.Email = s
		}
	}
	if role, ok := token.Get(claimRole); ok {
		if s, ok := role.(string); ok && s != "" {
			id.Role = models.Role(s)
		}
	}
	return id, nil
}
