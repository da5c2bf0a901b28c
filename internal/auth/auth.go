// internal/auth/auth.go
// Package auth parses and issues viewer tokens. Tokens are HS256 JWTs
// carrying the user's ID, role, and academic context. A missing token is
// not an error at this layer; routes that require identity enforce it
// themselves.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

// Claims are the JWT claims carried by viewer tokens.
type Claims struct {
	Role   string `json:"role"`
	Class  string `json:"class,omitempty"`
	Stream string `json:"stream,omitempty"`
	jwt.RegisteredClaims
}

// Verifier parses viewer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier over a shared HS256 secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates the token and returns the viewer it describes.
func (v *Verifier) Parse(tokenString string) (model.Viewer, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return model.Viewer{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return model.Viewer{}, fmt.Errorf("invalid token")
	}
	return model.Viewer{
		UserID: claims.Subject,
		Role:   model.Role(claims.Role),
		Class:  claims.Class,
		Stream: claims.Stream,
	}, nil
}

// Issue signs a viewer token, used by tests and local tooling.
func Issue(secret string, viewer model.Viewer, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:   string(viewer.Role),
		Class:  viewer.Class,
		Stream: viewer.Stream,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
