package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"donationhub/internal/domain"
)

var ErrBadToken = errors.New("invalid token")

// Claims identify the account behind a session. Type carries the account
// kind so handlers can gate NGO-only routes without a store lookup.
type Claims struct {
	ID   string             `json:"id"`
	Type domain.AccountKind `json:"type"`
	Name string             `json:"name"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long issued tokens stay valid; cookies use the same lifetime.
func (t *Tokens) TTL() time.Duration { return t.ttl }

func (t *Tokens) Issue(account domain.Account) (string, error) {
	now := t.now()
	c := Claims{
		ID:   account.ID,
		Type: account.Kind,
		Name: account.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.ID == "" || !c.Type.Valid() {
		return nil, ErrBadToken
	}
	return c, nil
}
