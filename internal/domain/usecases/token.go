package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/loglens/loglens-go/internal/domain/entities"
	"github.com/loglens/loglens-go/internal/domain/ports"
)

// TokenStore owns the current credential. It reads durable storage once at
// construction and keeps the credential in memory; mutations write through.
type TokenStore struct {
	mu            sync.Mutex
	kv            ports.KeyValueStore
	cred          *entities.Credential
	onInvalidated func()
}

// NewTokenStore loads any persisted credential from the store.
// onInvalidated is emitted when a call is rejected as unauthenticated, so
// the outer layer can route back to login; it may be nil.
func NewTokenStore(ctx context.Context, kv ports.KeyValueStore, onInvalidated func()) (*TokenStore, error) {
	token, okToken, err := kv.Get(ctx, keyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	userID, _, err := kv.Get(ctx, keyUserID)
	if err != nil {
		return nil, fmt.Errorf("loading user id: %w", err)
	}

	s := &TokenStore{kv: kv, onInvalidated: onInvalidated}
	if okToken && token != "" {
		s.cred = &entities.Credential{Token: token, UserID: userID}
	}
	return s, nil
}

// Credential returns the live credential, ok false when logged out.
func (s *TokenStore) Credential() (entities.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return entities.Credential{}, false
	}
	return *s.cred, true
}

// Token implements ports.TokenSource.
func (s *TokenStore) Token() (string, bool) {
	cred, ok := s.Credential()
	return cred.Token, ok
}

// SetCredential persists the token and user id and makes them current.
func (s *TokenStore) SetCredential(ctx context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, keyAccessToken, token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	if err := s.kv.Set(ctx, keyUserID, userID); err != nil {
		return fmt.Errorf("persisting user id: %w", err)
	}
	s.cred = &entities.Credential{Token: token, UserID: userID}
	return nil
}

// ClearCredential removes the credential and all session state. Logging out
// invalidates the conversation too: its content is scoped to one login.
func (s *TokenStore) ClearCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = nil
	if err := s.kv.Delete(ctx, keyAccessToken, keyUserID, keySessionID, keyMessages, keyEvidence); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

// HandleUnauthorized implements ports.TokenSource. The transport layer calls
// it for every authentication rejection, regardless of which request was
// rejected. Safe to invoke with no credential and no active session.
func (s *TokenStore) HandleUnauthorized() {
	// The in-memory credential is dropped even if storage cleanup fails;
	// a stale token must never be re-sent.
	_ = s.ClearCredential(context.Background())
	if s.onInvalidated != nil {
		s.onInvalidated()
	}
}

// AuthState is the auth gate's resolution.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthAuthenticated
	AuthUnauthenticated
)

// AuthGate decides whether the session core may run. It starts unknown,
// resolves exactly once per process from the token store, and never returns
// to unknown. Login and Logout flip the resolved state directly without
// re-reading storage.
type AuthGate struct {
	mu    sync.Mutex
	state AuthState
}

// NewAuthGate returns a gate in the unknown state.
func NewAuthGate() *AuthGate {
	return &AuthGate{state: AuthUnknown}
}

// Resolve reads the token store once. Further calls return the already
// resolved state without touching the store.
func (g *AuthGate) Resolve(store *TokenStore) AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != AuthUnknown {
		return g.state
	}
	if _, ok := store.Credential(); ok {
		g.state = AuthAuthenticated
	} else {
		g.state = AuthUnauthenticated
	}
	return g.state
}

// State returns the current resolution.
func (g *AuthGate) State() AuthState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Login marks the gate authenticated.
func (g *AuthGate) Login() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = AuthAuthenticated
}

// Logout marks the gate unauthenticated.
func (g *AuthGate) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = AuthUnauthenticated
}
