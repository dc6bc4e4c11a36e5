// Package auth implements single-user login with bcrypt password checks and
// in-memory session tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

const CookieName = "session_token"

type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionStore keeps active sessions in memory. Sessions do not survive a
// restart; the single user logs in again.
type SessionStore struct {
	mu      sync.Mutex
	byToken map[string]*Session
	ttl     time.Duration
	now     func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		byToken: make(map[string]*Session),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, userID string) (*Session, error) {
	token, err := generateSecureToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	s.byToken[token] = session

	return session, nil
}

// GetByToken retrieves a session by token and validates it's not expired.
// Expired sessions are removed on lookup.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byToken[token]
	if !ok {
		return nil, ErrInvalidSession
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.byToken, token)
		return nil, ErrExpiredSession
	}

	copied := *session
	return &copied, nil
}

// Delete removes a session (logout)
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
