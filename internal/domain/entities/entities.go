// Package entities contains core business entities.
// These are pure domain objects with no knowledge of storage or transport.
package entities

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one turn of the conversation.
// The sequence is append-only; it is only ever cleared by a session reset.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Severity classifies an evidence log line.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Tier normalizes a severity value for display grouping.
// Anything that is not HIGH or MEDIUM falls into the LOW tier.
func (s Severity) Tier() Severity {
	switch Severity(strings.ToUpper(string(s))) {
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// EvidenceRecord is one log line the service cites as support for its
// latest answer. JSON tags match the wire format.
type EvidenceRecord struct {
	LogID       int      `json:"log_id"`
	Timestamp   string   `json:"timestamp"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	ThreadName  string   `json:"thread_name,omitempty"`
	ThreadID    string   `json:"thread_id,omitempty"`
	ProjectName string   `json:"project_name,omitempty"`
	StackTrace  string   `json:"stack_trace,omitempty"`
}

// Credential is the bearer token plus the user identifier it belongs to.
// At most one credential is live at a time.
type Credential struct {
	Token  string
	UserID string
}

// ChatResponse is the assistant's answer with its supporting evidence.
type ChatResponse struct {
	Answer  string
	Sources []EvidenceRecord
}

// LogRecord is one log line in the shape the ingest endpoint accepts.
// JSON keys follow the service's LogIngestSchema, casing quirks included.
type LogRecord struct {
	Data        string `json:"data"`
	Severity    string `json:"severity"`
	Timestamp   string `json:"timestamp"`
	ThreadID    string `json:"threadId"`
	ThreadName  string `json:"threadName"`
	StackTrace  string `json:"stackTrace,omitempty"`
	ProjectName string `json:"project_name"`
	UserID      string `json:"user_Id"`
}
