// Package auth verifies Supabase access tokens and proxies account
// operations to the Supabase auth server (GoTrue).
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/armystay/hotels/internal/apperr"
)

// Principal is the authenticated user of a request.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 access tokens signed with the project secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a Verifier for the given JWT secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify checks the token and returns its principal.
func (v *Verifier) Verify(token string) (Principal, error) {
	if len(v.secret) == 0 {
		return Principal{}, apperr.Unauthorized("authentication is not configured")
	}

	var claims accessClaims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Principal{}, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "invalid token", Err: err}
	}
	if claims.Subject == "" {
		return Principal{}, apperr.Unauthorized("invalid token")
	}

	return Principal{UserID: claims.Subject, Email: claims.Email}, nil
}
