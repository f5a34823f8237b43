package usecases

import (
	"context"

	"github.com/loglens/loglens-go/internal/domain/entities"
)

// fakeQueryService implements ports.QueryService for testing.
type fakeQueryService struct {
	resp      *entities.ChatResponse
	err       error
	deleteErr error
	queries   []string
	deleted   []string
}

func (f *fakeQueryService) Query(ctx context.Context, sessionID, query string) (*entities.ChatResponse, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &entities.ChatResponse{Answer: "mocked answer"}, nil
}

func (f *fakeQueryService) DeleteSession(ctx context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return f.deleteErr
}
