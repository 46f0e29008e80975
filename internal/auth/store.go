// Package auth keeps the staff session that unlocks the kitchen dashboard.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"restaurant-client/internal/common/apperr"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/storage"
)

var ErrMissingCredentials = apperr.New(apperr.CodeValidation, "Username and password are required")

type Authenticator interface {
	StaffLogin(ctx context.Context, username, password string) (domain.StaffSession, error)
}

type staffUser struct {
	Username string `json:"username"`
}

type Store struct {
	mu      sync.RWMutex
	kv      storage.Storage
	authn   Authenticator
	lg      *logger.Logger
	session domain.StaffSession
}

// IsAuthenticated is true exactly when the session carries a token.
func IsAuthenticated(s domain.StaffSession) bool {
	return strings.TrimSpace(s.Token) != ""
}

func Load(ctx context.Context, kv storage.Storage, authn Authenticator, lg *logger.Logger) (*Store, error) {
	s := &Store{kv: kv, authn: authn, lg: lg}

	token, ok, err := kv.Get(ctx, storage.KeyToken)
	if err != nil {
		return nil, fmt.Errorf("load staff token: %w", err)
	}
	if !ok || strings.TrimSpace(string(token)) == "" {
		return s, nil
	}
	s.session.Token = string(token)

	raw, ok, err := kv.Get(ctx, storage.KeyStaffUser)
	if err != nil {
		return nil, fmt.Errorf("load staff user: %w", err)
	}
	if ok {
		var u staffUser
		if err := json.Unmarshal(raw, &u); err != nil {
			lg.Warn("staff_user_discarded", err, map[string]any{"key": storage.KeyStaffUser})
		} else {
			s.session.Username = u.Username
		}
	}
	return s, nil
}

func (s *Store) Session() domain.StaffSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) Token() string { return s.Session().Token }

func (s *Store) IsAuthenticated() bool { return IsAuthenticated(s.Session()) }

// Login replaces the session only when the backend accepts the credentials
// and the new session has been persisted.
func (s *Store) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	sess, err := s.authn.StaffLogin(ctx, username, password)
	if err != nil {
		s.lg.Warn("staff_login_failed", err, map[string]any{"username": username})
		return fmt.Errorf("login: %w", err)
	}

	user, err := json.Marshal(staffUser{Username: sess.Username})
	if err != nil {
		return fmt.Errorf("encode staff user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, storage.KeyToken, []byte(sess.Token)); err != nil {
		return fmt.Errorf("persist staff token: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyStaffUser, user); err != nil {
		_ = s.kv.Delete(ctx, storage.KeyToken)
		return fmt.Errorf("persist staff user: %w", err)
	}
	s.session = sess
	s.lg.Info("staff_logged_in", map[string]any{"username": sess.Username})
	return nil
}

// Logout always clears the in-memory session; storage errors are reported.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.session.Username
	s.session = domain.StaffSession{}
	err := errors.Join(
		s.kv.Delete(ctx, storage.KeyToken),
		s.kv.Delete(ctx, storage.KeyStaffUser),
	)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.lg.Info("staff_logged_out", map[string]any{"username": user})
	return nil
}
