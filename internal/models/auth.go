package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims is the payload of a session token issued by the hosted auth provider.
type AuthClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token, which is the usuario id.
func (c *AuthClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
