package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator verifies the single configured account against its bcrypt
// hash and hands out sessions.
type Authenticator struct {
	username     string
	passwordHash string
	sessions     *SessionStore
}

func NewAuthenticator(username, passwordHash string, sessions *SessionStore) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		sessions:     sessions,
	}
}

// Login checks the credentials and creates a session on success. The bcrypt
// comparison runs even for unknown usernames to keep response timing even.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password))
	if err != nil || username != a.username {
		return nil, ErrInvalidCredentials
	}
	return a.sessions.Create(ctx, a.username)
}

// Logout deletes the session for the given token.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.sessions.Delete(ctx, token)
}

// Sessions exposes the underlying store for the middleware.
func (a *Authenticator) Sessions() *SessionStore {
	return a.sessions
}
