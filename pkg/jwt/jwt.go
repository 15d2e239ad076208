// Package jwt reads identity claims from bearer tokens issued by the external
// auth provider.
//
// Signatures are NOT verified here. The identity is only used to partition
// cache keys; it must never back an authorization decision.
package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Guest is the identity used when no usable token is presented.
const Guest = "guest"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the subset of provider claims the service reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Identity returns the user id carried by the claims, preferring user_id over sub.
func (c *Claims) Identity() string {
	if id := strings.TrimSpace(c.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Subject)
}

var parser = jwt.NewParser()

// ParseUnverified decodes the payload segment of tokenString into Claims.
func ParseUnverified(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IdentityFromToken extracts the identity from a bearer token. Missing,
// malformed or subject-less tokens degrade to Guest.
func IdentityFromToken(tokenString string) string {
	claims, err := ParseUnverified(tokenString)
	if err != nil {
		return Guest
	}
	if id := claims.Identity(); id != "" {
		return id
	}
	return Guest
}
