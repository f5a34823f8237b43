package usecases

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/loglens/loglens-go/internal/domain/entities"
	"github.com/loglens/loglens-go/internal/domain/ports"
)

// Fixed assistant reply appended when the remote call fails for any reason.
const fallbackAnswer = "Sorry, I encountered an error connecting to the server."

var (
	// ErrEmptyQuery is returned for an utterance that is blank after trimming.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoSession is returned when Submit is called without a session id.
	ErrNoSession = errors.New("no session id")
)

// Pipeline takes a user utterance to the remote query service and feeds the
// response back into the session state.
type Pipeline struct {
	remote ports.QueryService
	state  *SessionState
	logger *zap.Logger
	busy   atomic.Bool
}

// NewPipeline wires the query pipeline. logger may be nil.
func NewPipeline(remote ports.QueryService, state *SessionState, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{remote: remote, state: state, logger: logger}
}

// Submit sends one utterance. The user message is appended before the round
// trip starts; on success the answer is appended and the evidence set
// replaced, on failure exactly one fallback assistant message is appended
// and the prior evidence stays untouched. The busy flag is cleared on every
// path.
//
// Concurrent submissions are neither queued nor cancelled: each resolves and
// appends independently, so unsynchronized callers can interleave answers
// out of send order. Callers gate on Busy instead.
func (p *Pipeline) Submit(ctx context.Context, sessionID, utterance string) (*entities.ChatResponse, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, ErrEmptyQuery
	}
	if sessionID == "" {
		return nil, ErrNoSession
	}

	if err := p.state.AppendUserMessage(ctx, utterance); err != nil {
		return nil, err
	}

	p.busy.Store(true)
	defer p.busy.Store(false)

	resp, err := p.remote.Query(ctx, sessionID, utterance)
	if err != nil {
		p.logger.Warn("query failed", zap.String("session_id", sessionID), zap.Error(err))
		if appendErr := p.state.AppendAssistantMessage(ctx, fallbackAnswer); appendErr != nil {
			return nil, appendErr
		}
		return nil, err
	}

	if err := p.state.AppendAssistantMessage(ctx, resp.Answer); err != nil {
		return nil, err
	}
	if err := p.state.ReplaceEvidence(ctx, resp.Sources); err != nil {
		return nil, err
	}
	return resp, nil
}

// Busy reports whether a submission is in flight.
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}
