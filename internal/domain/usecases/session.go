// Package usecases contains the client's application rules: the token
// store and auth gate, the conversation state, its lifecycle, the query
// pipeline, and the log shipper. Usecases depend only on port interfaces.
package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/loglens/loglens-go/internal/domain/entities"
	"github.com/loglens/loglens-go/internal/domain/ports"
)

// Durable storage keys. All five are cleared on logout; the session triple
// is cleared on reset while the credential survives.
const (
	keyAccessToken = "access_token"
	keyUserID      = "user_id"
	keySessionID   = "chat_session_id"
	keyMessages    = "chat_messages"
	keyEvidence    = "chat_evidence"
)

const (
	welcomeNotice      = "Hello! I am your Log Assistant. Ask me anything about your system logs."
	contextClearNotice = "Context cleared. Starting new session."
)

// SessionState owns the conversation: the ordered message history and the
// evidence set for the latest answer. Every mutation re-persists both to the
// key-value store against the current in-memory snapshot, so a restart
// restores the exact prior view.
type SessionState struct {
	mu       sync.Mutex
	kv       ports.KeyValueStore
	messages []entities.Message
	evidence []entities.EvidenceRecord
}

// NewSessionState loads the conversation from storage, seeding a fresh one
// with the welcome message when nothing (or nothing readable) is persisted.
func NewSessionState(ctx context.Context, kv ports.KeyValueStore) (*SessionState, error) {
	s := &SessionState{kv: kv}

	raw, ok, err := kv.Get(ctx, keyMessages)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}
	if ok {
		// An unreadable blob is treated as absent rather than bricking
		// the client; the conversation restarts from the seed.
		_ = json.Unmarshal([]byte(raw), &s.messages)
	}

	raw, ok, err = kv.Get(ctx, keyEvidence)
	if err != nil {
		return nil, fmt.Errorf("loading evidence: %w", err)
	}
	if ok {
		_ = json.Unmarshal([]byte(raw), &s.evidence)
	}

	if len(s.messages) == 0 {
		s.messages = []entities.Message{{Role: entities.RoleAssistant, Content: welcomeNotice}}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s, s.persistLocked(ctx)
	}
	return s, nil
}

// AppendUserMessage appends one user turn and persists.
func (s *SessionState) AppendUserMessage(ctx context.Context, content string) error {
	return s.append(ctx, entities.Message{Role: entities.RoleUser, Content: content})
}

// AppendAssistantMessage appends one assistant turn and persists.
func (s *SessionState) AppendAssistantMessage(ctx context.Context, content string) error {
	return s.append(ctx, entities.Message{Role: entities.RoleAssistant, Content: content})
}

func (s *SessionState) append(ctx context.Context, msg entities.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.persistLocked(ctx)
}

// ReplaceEvidence swaps in the evidence set for the latest answer. The set
// is always replaced wholesale, never merged with the previous turn's.
func (s *SessionState) ReplaceEvidence(ctx context.Context, records []entities.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence = append([]entities.EvidenceRecord(nil), records...)
	return s.persistLocked(ctx)
}

// Reset clears the conversation and seeds it with the context-cleared
// notice. Called by the lifecycle manager after rotating the session id.
func (s *SessionState) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = []entities.Message{{Role: entities.RoleAssistant, Content: contextClearNotice}}
	s.evidence = nil
	return s.persistLocked(ctx)
}

// Messages returns a copy of the message history in arrival order.
func (s *SessionState) Messages() []entities.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Message(nil), s.messages...)
}

// Evidence returns a copy of the current evidence set.
func (s *SessionState) Evidence() []entities.EvidenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.EvidenceRecord(nil), s.evidence...)
}

// persistLocked writes both keys from the in-memory snapshot. Callers hold
// the lock, so two mutations in the same tick serialize and the second one
// persists the combined state, never a stale one.
func (s *SessionState) persistLocked(ctx context.Context) error {
	msgs, err := json.Marshal(s.messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}
	ev, err := json.Marshal(s.evidence)
	if err != nil {
		return fmt.Errorf("encoding evidence: %w", err)
	}
	if err := s.kv.Set(ctx, keyMessages, string(msgs)); err != nil {
		return fmt.Errorf("persisting messages: %w", err)
	}
	if err := s.kv.Set(ctx, keyEvidence, string(ev)); err != nil {
		return fmt.Errorf("persisting evidence: %w", err)
	}
	return nil
}
