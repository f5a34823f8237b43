package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens-go/internal/domain/entities"
	"github.com/loglens/loglens-go/internal/domain/ports"
)

type fakeWatcher struct {
	events chan ports.FileEvent
}

func (f *fakeWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	return f.events, nil
}

func (f *fakeWatcher) Stop() error { return nil }

type fakeReader struct {
	records map[string][]entities.LogRecord
	err     error
}

func (f *fakeReader) ReadNew(ctx context.Context, path string) ([]entities.LogRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[path], nil
}

type fakeLogService struct {
	batches [][]entities.LogRecord
	err     error
}

func (f *fakeLogService) Ingest(ctx context.Context, records []entities.LogRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func TestShipper_ShipsNewRecords(t *testing.T) {
	watcher := &fakeWatcher{events: make(chan ports.FileEvent, 2)}
	reader := &fakeReader{records: map[string][]entities.LogRecord{
		"/var/log/app.log": {{Data: "ERROR boom", Severity: "HIGH"}},
	}}
	logs := &fakeLogService{}
	shipper := NewShipper(watcher, reader, logs, nil)

	watcher.events <- ports.FileEvent{Path: "/var/log/app.log", Operation: ports.FileModified}
	close(watcher.events)

	require.NoError(t, shipper.Run(context.Background(), "/var/log"))
	require.Len(t, logs.batches, 1)
	assert.Equal(t, "ERROR boom", logs.batches[0][0].Data)
}

func TestShipper_SkipsEmptyReads(t *testing.T) {
	watcher := &fakeWatcher{events: make(chan ports.FileEvent, 1)}
	logs := &fakeLogService{}
	shipper := NewShipper(watcher, &fakeReader{}, logs, nil)

	watcher.events <- ports.FileEvent{Path: "/var/log/empty.log", Operation: ports.FileModified}
	close(watcher.events)

	require.NoError(t, shipper.Run(context.Background(), "/var/log"))
	assert.Empty(t, logs.batches)
}

func TestShipper_KeepsRunningAfterFailures(t *testing.T) {
	watcher := &fakeWatcher{events: make(chan ports.FileEvent, 2)}
	reader := &fakeReader{err: errors.New("permission denied")}
	logs := &fakeLogService{}
	shipper := NewShipper(watcher, reader, logs, nil)

	watcher.events <- ports.FileEvent{Path: "/var/log/a.log", Operation: ports.FileModified}
	watcher.events <- ports.FileEvent{Path: "/var/log/b.log", Operation: ports.FileModified}
	close(watcher.events)

	// Both events are consumed despite the reader failing; the loop exits
	// cleanly when the channel closes.
	require.NoError(t, shipper.Run(context.Background(), "/var/log"))
	assert.Empty(t, logs.batches)
}

func TestShipper_StopsOnContextCancel(t *testing.T) {
	watcher := &fakeWatcher{events: make(chan ports.FileEvent)}
	shipper := NewShipper(watcher, &fakeReader{}, &fakeLogService{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- shipper.Run(ctx, "/var/log") }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("shipper did not stop after cancel")
	}
}
