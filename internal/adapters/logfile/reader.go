// Package logfile turns appended log file lines into ingestible records.
// It implements ports.LogReader.
package logfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/loglens/loglens-go/internal/domain/entities"
)

// Reader reads each file incrementally, remembering how far it got so only
// newly appended lines become records. A truncated file is re-read from the
// start.
type Reader struct {
	mu          sync.Mutex
	offsets     map[string]int64
	projectName string
	userID      string
}

// NewReader creates a reader stamping records with the given project and
// user identifier.
func NewReader(projectName, userID string) *Reader {
	return &Reader{
		offsets:     make(map[string]int64),
		projectName: projectName,
		userID:      userID,
	}
}

// ReadNew returns records for lines appended to path since the previous call.
func (r *Reader) ReadNew(ctx context.Context, path string) ([]entities.LogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	offset := r.offsets[path]
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking %s: %w", path, err)
	}

	threadName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	now := time.Now().UTC().Format(time.RFC3339)

	var records []entities.LogRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records = append(records, entities.LogRecord{
			Data:        line,
			Severity:    string(classify(line)),
			Timestamp:   now,
			ThreadID:    threadName,
			ThreadName:  threadName,
			ProjectName: r.projectName,
			UserID:      r.userID,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	pos, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	r.offsets[path] = pos
	return records, nil
}

// classify infers a severity from the line's contents.
func classify(line string) entities.Severity {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "FATAL"), strings.Contains(upper, "ERROR"),
		strings.Contains(upper, "EXCEPTION"):
		return entities.SeverityHigh
	case strings.Contains(upper, "WARN"):
		return entities.SeverityMedium
	default:
		return entities.SeverityLow
	}
}
