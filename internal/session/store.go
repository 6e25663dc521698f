// Package session owns the authenticated identity for the process and
// persists it to a storage.KV so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/response"
	"github.com/stemsi/examtester/internal/storage"
	"github.com/stemsi/examtester/internal/validator"
)

// Authenticator is the part of the gateway the store needs.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResponse, error)
}

// Store holds the current Session. Consumers read it; only the store
// mutates it.
type Store struct {
	auth Authenticator
	kv   storage.KV
	log  zerolog.Logger

	mu      sync.RWMutex
	session *model.Session
	loading bool

	restoreOnce sync.Once
}

// NewStore creates a Store that is loading until Restore runs.
func NewStore(auth Authenticator, kv storage.KV, log zerolog.Logger) *Store {
	return &Store{
		auth:    auth,
		kv:      kv,
		log:     log.With().Str("component", "session").Logger(),
		loading: true,
	}
}

// Restore loads a previously persisted session. The session becomes active
// only if both the identity record and the token are present and valid.
// Loading finishes exactly once, whatever the outcome.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		sess := s.load(ctx)

		s.mu.Lock()
		s.session = sess
		s.loading = false
		s.mu.Unlock()

		if sess != nil {
			s.log.Debug().Str("user_id", sess.User.ID).Str("role", string(sess.User.Role)).Msg("Session restored")
		}
	})
}

func (s *Store) load(ctx context.Context) *model.Session {
	rawUser, hasUser, err := s.kv.Get(ctx, config.StorageKey.User)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read stored user")
		return nil
	}
	token, hasToken, err := s.kv.Get(ctx, config.StorageKey.Token)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read stored token")
		return nil
	}
	if !hasUser || !hasToken {
		return nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.log.Warn().Err(err).Msg("Stored user is not valid JSON")
		return nil
	}
	sess, err := model.NewSession(user, token)
	if err != nil {
		s.log.Warn().Err(err).Msg("Stored session is incomplete")
		return nil
	}
	return sess
}

// Login exchanges credentials for a session. On failure the current session
// is left untouched and the reason is returned as a *response.Error.
func (s *Store) Login(ctx context.Context, email, password string, role model.Role) (*model.Session, error) {
	req := model.LoginRequest{Email: email, Password: password, Role: role}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	out, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, response.Wrap(err, "Login failed")
	}
	return s.establish(ctx, out, "Login failed")
}

// Signup registers an account and signs in as it. Same contract as Login.
func (s *Store) Signup(ctx context.Context, email, password string, role model.Role, name string) (*model.Session, error) {
	req := model.SignupRequest{Email: email, Password: password, Role: role, Name: name}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	out, err := s.auth.Signup(ctx, req)
	if err != nil {
		return nil, response.Wrap(err, "Signup failed")
	}
	return s.establish(ctx, out, "Signup failed")
}

// establish persists the new identity and token, then swaps the in-memory
// session. If persisting fails storage is cleared and any previous session
// ends too, so memory never claims a session that storage no longer holds.
func (s *Store) establish(ctx context.Context, out *model.AuthResponse, fallback string) (*model.Session, error) {
	sess, err := model.NewSession(out.User, out.Token)
	if err != nil {
		return nil, response.Wrap(fmt.Errorf("auth response: %w", err), fallback)
	}

	if err := s.persist(ctx, sess); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist session")
		s.clearStorage(ctx)

		s.mu.Lock()
		s.session = nil
		s.loading = false
		s.mu.Unlock()
		return nil, response.Wrap(err, "Failed to save session")
	}

	s.mu.Lock()
	s.session = sess
	s.loading = false
	s.mu.Unlock()

	s.log.Info().Str("user_id", sess.User.ID).Str("role", string(sess.User.Role)).Msg("Signed in")
	cp := *sess
	return &cp, nil
}

func (s *Store) persist(ctx context.Context, sess *model.Session) error {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(ctx, config.StorageKey.User, string(raw)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	if err := s.kv.Set(ctx, config.StorageKey.Token, sess.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Logout clears the session and its persisted keys. It never fails; storage
// errors are only logged.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	s.clearStorage(ctx)
	s.log.Info().Msg("Signed out")
}

func (s *Store) clearStorage(ctx context.Context) {
	for _, key := range []string{config.StorageKey.User, config.StorageKey.Token} {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("Failed to remove stored session key")
		}
	}
}

// Invalidate drops the in-memory session after the gateway saw a 401. The
// gateway has already removed the persisted keys.
func (s *Store) Invalidate() {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	if had {
		s.log.Warn().Msg("Session invalidated by the exam service")
	}
}

// Current returns a copy of the active session, or nil.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// Loading reports whether Restore has yet to finish.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Token returns the active bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// GuardState snapshots the store for the router.
func (s *Store) GuardState() guard.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := guard.State{Loading: s.loading}
	if s.session != nil {
		cp := *s.session
		st.Session = &cp
	}
	return st
}
