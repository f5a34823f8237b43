package usecases

import (
	"context"

	"go.uber.org/zap"

	"github.com/loglens/loglens-go/internal/domain/ports"
)

// Shipper watches a directory of log files and forwards newly appended
// records to the ingest endpoint. One failed file or batch is logged and
// skipped; the loop keeps running.
type Shipper struct {
	watcher ports.FileWatcher
	reader  ports.LogReader
	logs    ports.LogService
	logger  *zap.Logger
}

// NewShipper wires the log shipper. logger may be nil.
func NewShipper(watcher ports.FileWatcher, reader ports.LogReader, logs ports.LogService, logger *zap.Logger) *Shipper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shipper{watcher: watcher, reader: reader, logs: logs, logger: logger}
}

// Run ships log records from dir until ctx is cancelled or the watcher
// closes its event channel.
func (s *Shipper) Run(ctx context.Context, dir string) error {
	events, err := s.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.ship(ctx, event.Path)
		}
	}
}

func (s *Shipper) ship(ctx context.Context, path string) {
	records, err := s.reader.ReadNew(ctx, path)
	if err != nil {
		s.logger.Warn("reading log file", zap.String("path", path), zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}
	if err := s.logs.Ingest(ctx, records); err != nil {
		s.logger.Warn("shipping batch", zap.String("path", path),
			zap.Int("records", len(records)), zap.Error(err))
		return
	}
	s.logger.Info("shipped batch", zap.String("path", path), zap.Int("records", len(records)))
}
