package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tair/seller-dashboard/internal/shell"
)

var ErrInvalidViewToken = errors.New("web: invalid view token")

// ViewClaims binds an action form to the mounted view it was rendered from
type ViewClaims struct {
	ViewID   string `json:"vid"`
	SellerID string `json:"sid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies view tokens with HS256
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for a mounted view
func (t *Tokens) Issue(viewID, sellerID string, role shell.Role) (string, error) {
	now := t.now()
	claims := ViewClaims{
		ViewID:   viewID,
		SellerID: sellerID,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  sellerID,
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign view token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the claims
func (t *Tokens) Parse(token string) (*ViewClaims, error) {
	if token == "" {
		return nil, ErrInvalidViewToken
	}

	claims := &ViewClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidViewToken, err)
	}
	if claims.ViewID == "" {
		return nil, ErrInvalidViewToken
	}
	return claims, nil
}
