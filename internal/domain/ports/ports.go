// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/loglens/loglens-go/internal/domain/entities"
)

// KeyValueStore is the durable client-side persistence boundary.
// Production binds it to sqlite, tests to an in-memory map.
type KeyValueStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// TokenSource is what the transport layer needs from the token store:
// the current bearer token, and a hook for authentication rejections.
type TokenSource interface {
	// Token returns the current bearer token, ok false when logged out.
	Token() (token string, ok bool)

	// HandleUnauthorized is invoked whenever any call is rejected with an
	// authentication error. It must be safe to call at any time, with or
	// without an active session.
	HandleUnauthorized()
}

// AuthService issues and inspects credentials on the remote service.
type AuthService interface {
	// Login exchanges a username and password for a credential.
	Login(ctx context.Context, username, password string) (*entities.Credential, error)

	// Signup registers a new user and returns the assigned user id.
	Signup(ctx context.Context, username, password string) (string, error)

	// ResetPassword replaces the password for the given username.
	ResetPassword(ctx context.Context, username, newPassword string) error

	// Whoami returns the user id behind the current credential.
	Whoami(ctx context.Context) (string, error)
}

// QueryService is the remote query/answer endpoint for one conversation.
type QueryService interface {
	// Query sends one utterance for the given session and returns the
	// answer with its supporting evidence.
	Query(ctx context.Context, sessionID, query string) (*entities.ChatResponse, error)

	// DeleteSession asks the service to discard all state for sessionID.
	DeleteSession(ctx context.Context, sessionID string) error
}

// LogService accepts batches of log records for ingestion.
type LogService interface {
	Ingest(ctx context.Context, records []entities.LogRecord) error
}

// LogReader extracts newly appended records from a log file.
type LogReader interface {
	// ReadNew returns records appended to path since the previous call.
	ReadNew(ctx context.Context, path string) ([]entities.LogRecord, error)
}

// FileWatcher monitors a directory for changes to log files.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events until ctx ends.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
)
