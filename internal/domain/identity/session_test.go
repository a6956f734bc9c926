package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsAuthenticated(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil session", nil, false},
		{"no token", &Session{ExpiresAt: now.Add(time.Hour)}, false},
		{"no expiry", &Session{AccessToken: "t"}, false},
		{"expired", &Session{AccessToken: "t", ExpiresAt: now.Add(-time.Second)}, false},
		{"valid", &Session{AccessToken: "t", ExpiresAt: now.Add(time.Minute)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.IsAuthenticated(now))
		})
	}
}
