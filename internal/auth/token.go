package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "linechat"

// ErrNoTokenSecret is returned when token support is not configured.
var ErrNoTokenSecret = errors.New("token secret not configured")

// Claims are the JWT claims carried by a handshake token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates handshake tokens. A client that obtained
// a token over HTTP may present it in place of the chat password on the
// socket handshake.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer from a shared secret and token lifetime.
// An empty secret disables token support.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether a signing secret was configured.
func (t *TokenIssuer) Enabled() bool {
	return len(t.secret) > 0
}

// Issue creates a signed handshake token.
func (t *TokenIssuer) Issue() (string, error) {
	if !t.Enabled() {
		return "", ErrNoTokenSecret
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a candidate token and reports whether it is currently valid.
func (t *TokenIssuer) Validate(tokenString string) bool {
	if !t.Enabled() {
		return false
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return false
	}
	return token.Valid
}
