package identity

import (
	"context"
	"time"
)

// UserProfile is what the access token says about the signed-in user
type UserProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session holds the bearer tokens issued by the remote backend
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Profile      UserProfile `json:"profile"`
}

// IsAuthenticated returns true while the access token is present and unexpired.
// A token without an expiry is not trusted.
func (s *Session) IsAuthenticated(now time.Time) bool {
	if s == nil || s.AccessToken == "" || s.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(s.ExpiresAt)
}

// TokenStore persists the session between process restarts
type TokenStore interface {
	// Load returns the stored session, or nil when there is none
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Clear(ctx context.Context) error
}
