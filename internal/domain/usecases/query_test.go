package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens-go/internal/adapters/storage"
	"github.com/loglens/loglens-go/internal/domain/entities"
)

func newTestPipeline(t *testing.T, remote *fakeQueryService) (*Pipeline, *SessionState) {
	t.Helper()
	state, err := NewSessionState(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	return NewPipeline(remote, state, nil), state
}

func TestPipeline_SubmitAppendsExchange(t *testing.T) {
	ctx := context.Background()
	remote := &fakeQueryService{resp: &entities.ChatResponse{
		Answer: "Thread-7 threw a NullPointerException at 10:02",
		Sources: []entities.EvidenceRecord{
			{LogID: 42, Timestamp: "2024-01-01T10:02:00Z", Severity: entities.SeverityHigh, Message: "NPE in thread-7"},
		},
	}}
	p, state := newTestPipeline(t, remote)

	resp, err := p.Submit(ctx, "session-a", "why did thread-7 crash?")
	require.NoError(t, err)
	assert.Equal(t, "Thread-7 threw a NullPointerException at 10:02", resp.Answer)

	msgs := state.Messages()
	require.Len(t, msgs, 3) // seed, user, assistant
	assert.Equal(t, entities.RoleUser, msgs[1].Role)
	assert.Equal(t, "why did thread-7 crash?", msgs[1].Content)
	assert.Equal(t, entities.RoleAssistant, msgs[2].Role)
	assert.Equal(t, resp.Answer, msgs[2].Content)

	evidence := state.Evidence()
	require.Len(t, evidence, 1)
	assert.Equal(t, 42, evidence[0].LogID)
}

func TestPipeline_SequentialSubmitsInterleave(t *testing.T) {
	ctx := context.Background()
	remote := &fakeQueryService{}
	p, state := newTestPipeline(t, remote)

	_, err := p.Submit(ctx, "s", "question one")
	require.NoError(t, err)
	_, err = p.Submit(ctx, "s", "question two")
	require.NoError(t, err)

	msgs := state.Messages()
	require.Len(t, msgs, 5)
	roles := []entities.Role{msgs[1].Role, msgs[2].Role, msgs[3].Role, msgs[4].Role}
	assert.Equal(t, []entities.Role{
		entities.RoleUser, entities.RoleAssistant,
		entities.RoleUser, entities.RoleAssistant,
	}, roles)
}

func TestPipeline_EvidenceReplacedNotAccumulated(t *testing.T) {
	ctx := context.Background()
	remote := &fakeQueryService{resp: &entities.ChatResponse{
		Answer:  "a1",
		Sources: []entities.EvidenceRecord{{LogID: 1}, {LogID: 2}},
	}}
	p, state := newTestPipeline(t, remote)

	_, err := p.Submit(ctx, "s", "q1")
	require.NoError(t, err)

	remote.resp = &entities.ChatResponse{
		Answer:  "a2",
		Sources: []entities.EvidenceRecord{{LogID: 3}},
	}
	_, err = p.Submit(ctx, "s", "q2")
	require.NoError(t, err)

	evidence := state.Evidence()
	require.Len(t, evidence, 1)
	assert.Equal(t, 3, evidence[0].LogID)
}

func TestPipeline_FailureAppendsFallbackAndKeepsEvidence(t *testing.T) {
	ctx := context.Background()
	remote := &fakeQueryService{resp: &entities.ChatResponse{
		Answer:  "fine",
		Sources: []entities.EvidenceRecord{{LogID: 7, Message: "kept"}},
	}}
	p, state := newTestPipeline(t, remote)

	_, err := p.Submit(ctx, "s", "q1")
	require.NoError(t, err)

	remote.err = errors.New("connection refused")
	_, err = p.Submit(ctx, "s", "q2")
	require.Error(t, err)

	msgs := state.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, entities.RoleAssistant, msgs[4].Role)
	assert.Equal(t, fallbackAnswer, msgs[4].Content)

	evidence := state.Evidence()
	require.Len(t, evidence, 1)
	assert.Equal(t, 7, evidence[0].LogID)
	assert.False(t, p.Busy())
}

func TestPipeline_RejectsBlankUtterance(t *testing.T) {
	ctx := context.Background()
	p, state := newTestPipeline(t, &fakeQueryService{})

	_, err := p.Submit(ctx, "s", "   \t ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Len(t, state.Messages(), 1) // nothing appended
}

func TestPipeline_RequiresSessionID(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t, &fakeQueryService{})

	_, err := p.Submit(ctx, "", "valid question")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestPipeline_BusyClearedAfterSuccess(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPipeline(t, &fakeQueryService{})

	_, err := p.Submit(ctx, "s", "q")
	require.NoError(t, err)
	assert.False(t, p.Busy())
}
