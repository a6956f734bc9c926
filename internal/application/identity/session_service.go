// Package identity manages the signed-in session shared by the sync layer.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domain "github.com/erp/orderdesk/internal/domain/identity"
	"github.com/erp/orderdesk/internal/domain/shared"
	"github.com/erp/orderdesk/internal/infrastructure/auth"
	"github.com/erp/orderdesk/internal/infrastructure/logger"
	"github.com/erp/orderdesk/internal/infrastructure/remote"
	"go.uber.org/zap"
)

// Authenticator exchanges credentials for tokens
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*remote.Tokens, error)
}

// LoginRequest carries the login form fields
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionService owns the current session. Login sets it, logout and 401s clear it.
type SessionService struct {
	auth   Authenticator
	store  domain.TokenStore
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *domain.Session
}

// NewSessionService creates a session service
func NewSessionService(a Authenticator, store domain.TokenStore, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{auth: a, store: store, logger: log, now: time.Now}
}

// Restore loads a persisted session, if any
func (s *SessionService) Restore(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	if sess != nil && !sess.IsAuthenticated(s.now()) {
		s.logger.Info("stored session has expired")
	}
	return nil
}

// Login authenticates against the remote backend and persists the tokens
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*domain.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Email and password are required")
	}
	tokens, err := s.auth.Login(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredential) {
			logger.Or(ctx, s.logger).Info("login rejected", zap.String("email", email))
		}
		return nil, err
	}
	sess, err := s.sessionFor(tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
	if err != nil {
		return nil, err
	}
	if err := s.set(ctx, sess); err != nil {
		return nil, err
	}
	logger.Or(ctx, s.logger).Info("logged in", zap.String("email", sess.Profile.Email))
	return sess, nil
}

// UseAccessToken installs a token handed over by another application
func (s *SessionService) UseAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Access token is required")
	}
	sess, err := s.sessionFor(token, "", 0)
	if err != nil {
		return nil, err
	}
	if err := s.set(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout forgets the session
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

// Current returns the session while it is valid, or nil
func (s *SessionService) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.current.IsAuthenticated(s.now()) {
		return nil
	}
	cp := *s.current
	return &cp
}

// IsAuthenticated reports whether a valid session exists
func (s *SessionService) IsAuthenticated() bool {
	return s.Current() != nil
}

// Token returns the access token to attach to remote requests.
// A stored token is sent even when expired; the backend decides.
func (s *SessionService) Token(context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// HandleUnauthorized clears the session after the backend rejected it
func (s *SessionService) HandleUnauthorized(ctx context.Context) {
	logger.Or(ctx, s.logger).Warn("remote rejected the session, signing out")
	if err := s.Logout(ctx); err != nil {
		logger.Or(ctx, s.logger).Error("failed to clear session", zap.Error(err))
	}
}

func (s *SessionService) sessionFor(access, refresh string, expiresIn time.Duration) (*domain.Session, error) {
	var fallback time.Time
	if expiresIn > 0 {
		fallback = s.now().Add(expiresIn)
	}
	sess, err := auth.SessionFromTokens(access, refresh, fallback)
	if err != nil {
		return nil, shared.NewDomainError(shared.ErrInvalidCredential.Code, "Invalid access token")
	}
	return sess, nil
}

func (s *SessionService) set(ctx context.Context, sess *domain.Session) error {
	if err := s.store.Save(ctx, sess); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return nil
}
