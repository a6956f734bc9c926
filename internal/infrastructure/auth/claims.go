// Package auth reads identity claims out of the bearer tokens issued by the remote backend.
package auth

import (
	"fmt"
	"time"

	"github.com/erp/orderdesk/internal/domain/identity"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Profile returns the user profile carried by the claims
func (c *Claims) Profile() identity.UserProfile {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	return identity.UserProfile{Email: c.Email, Name: name, Role: c.Role}
}

// ParseClaims decodes an access token without verifying its signature.
// The remote backend verifies tokens on every call.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}

// SessionFromTokens builds a session from the tokens returned by login.
// fallbackExpiry is used when the access token carries no exp claim.
func SessionFromTokens(access, refresh string, fallbackExpiry time.Time) (*identity.Session, error) {
	claims, err := ParseClaims(access)
	if err != nil {
		return nil, err
	}
	sess := &identity.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    fallbackExpiry,
		Profile:      claims.Profile(),
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}
