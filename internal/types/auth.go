package types

import "github.com/golang-jwt/jwt/v5"

// Claims are the access-token claims issued by the identity provider.
type Claims struct {
	UserID string `json:"sub_uid,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ResolvedUserID returns the user id, preferring the explicit claim over "sub".
func (c *Claims) ResolvedUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}
