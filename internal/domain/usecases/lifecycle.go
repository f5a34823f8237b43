package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loglens/loglens-go/internal/domain/ports"
)

// Lifecycle manages the session identifier: creation on first use and
// rotation on explicit reset. Session identity is client-authoritative; the
// remote service is only told which identifier to forget.
type Lifecycle struct {
	mu        sync.Mutex
	kv        ports.KeyValueStore
	remote    ports.QueryService
	state     *SessionState
	logger    *zap.Logger
	sessionID string
}

// NewLifecycle wires the lifecycle manager. logger may be nil.
func NewLifecycle(kv ports.KeyValueStore, remote ports.QueryService, state *SessionState, logger *zap.Logger) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{kv: kv, remote: remote, state: state, logger: logger}
}

// EnsureSessionID returns the persisted session identifier, generating and
// persisting a fresh one when none exists. Idempotent: absent a reset, every
// call returns the same identifier. Must run before the first query.
func (l *Lifecycle) EnsureSessionID(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sessionID != "" {
		return l.sessionID, nil
	}

	id, ok, err := l.kv.Get(ctx, keySessionID)
	if err != nil {
		return "", fmt.Errorf("loading session id: %w", err)
	}
	if !ok || id == "" {
		id = uuid.NewString()
		if err := l.kv.Set(ctx, keySessionID, id); err != nil {
			return "", fmt.Errorf("persisting session id: %w", err)
		}
		l.logger.Debug("created session", zap.String("session_id", id))
	}
	l.sessionID = id
	return id, nil
}

// Reset invalidates the remote session best-effort, then rotates the local
// identifier and re-seeds the conversation. The remote delete failing or
// timing out never blocks the local reset. A query already in flight is not
// cancelled; its answer, if any, lands in the fresh conversation.
func (l *Lifecycle) Reset(ctx context.Context) (string, error) {
	current, err := l.EnsureSessionID(ctx)
	if err != nil {
		return "", err
	}

	if err := l.remote.DeleteSession(ctx, current); err != nil {
		l.logger.Debug("remote session delete failed, continuing",
			zap.String("session_id", current), zap.Error(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.NewString()
	if err := l.kv.Set(ctx, keySessionID, id); err != nil {
		return "", fmt.Errorf("persisting session id: %w", err)
	}
	if err := l.state.Reset(ctx); err != nil {
		return "", err
	}
	l.sessionID = id
	return id, nil
}
