package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/erp/orderdesk/internal/domain/identity"
)

const sessionKey = "auth:session"

// SessionStore persists the login session in the client store
type SessionStore struct {
	store *ClientStore
}

// NewSessionStore creates a SessionStore
func NewSessionStore(store *ClientStore) *SessionStore {
	return &SessionStore{store: store}
}

// Load implements identity.TokenStore
func (s *SessionStore) Load(ctx context.Context) (*identity.Session, error) {
	raw, _, found, err := s.store.Get(ctx, sessionKey)
	if err != nil || !found {
		return nil, err
	}
	var sess identity.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode stored session: %w", err)
	}
	return &sess, nil
}

// Save implements identity.TokenStore
func (s *SessionStore) Save(ctx context.Context, sess *identity.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Put(ctx, sessionKey, raw)
}

// Clear implements identity.TokenStore
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, sessionKey)
}

// MemorySessionStore keeps the session in process memory only
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess *identity.Session
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Load implements identity.TokenStore
func (m *MemorySessionStore) Load(context.Context) (*identity.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

// Save implements identity.TokenStore
func (m *MemorySessionStore) Save(_ context.Context, sess *identity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess == nil {
		m.sess = nil
		return nil
	}
	cp := *sess
	m.sess = &cp
	return nil
}

// Clear implements identity.TokenStore
func (m *MemorySessionStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

var (
	_ identity.TokenStore = (*SessionStore)(nil)
	_ identity.TokenStore = (*MemorySessionStore)(nil)
)
