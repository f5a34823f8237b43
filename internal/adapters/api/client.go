// Package api is the HTTP adapter for the remote log-assistant service.
// It implements ports.AuthService, ports.QueryService and ports.LogService.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loglens/loglens-go/internal/domain/entities"
	"github.com/loglens/loglens-go/internal/domain/ports"
)

const defaultBaseURL = "http://localhost:8000"

// ErrUnauthorized marks an authentication rejection. By the time a caller
// sees it the credential has already been cleared via the token source.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the service, carrying the service's
// detail message verbatim when one was provided.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("service returned status %d", e.Status)
}

// Client talks JSON over HTTP to the service. Every request carries the
// bearer token when one exists, and every authentication rejection triggers
// the token source's global unauthorized hook.
type Client struct {
	baseURL    string
	tokens     ports.TokenSource
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, tokens ports.TokenSource, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do issues one JSON request. body and out may be nil. A 401 fires the
// unauthorized hook before the error is returned, so no caller needs to
// handle rejection individually.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.HandleUnauthorized()
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// readDetail extracts the service's error detail field, if any.
func readDetail(body io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// Login exchanges a username and password for a credential.
func (c *Client) Login(ctx context.Context, username, password string) (*entities.Credential, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{username, password}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access token")
	}
	return &entities.Credential{Token: resp.AccessToken, UserID: resp.UserID}, nil
}

type signupResponse struct {
	UserID string `json:"user_id"`
}

// Signup registers a new user and returns the assigned user id.
func (c *Client) Signup(ctx context.Context, username, password string) (string, error) {
	var resp signupResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", loginRequest{username, password}, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

type resetPasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

// ResetPassword replaces the password for the given username.
func (c *Client) ResetPassword(ctx context.Context, username, newPassword string) error {
	return c.do(ctx, http.MethodPatch, "/auth/reset-password", resetPasswordRequest{username, newPassword}, nil)
}

type whoamiResponse struct {
	UserID string `json:"user_id"`
}

// Whoami returns the user id behind the current credential.
func (c *Client) Whoami(ctx context.Context) (string, error) {
	var resp whoamiResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// queryResponse is the service's envelope: each source wraps the evidence
// record in a content field.
type queryResponse struct {
	Answer  string `json:"answer"`
	Sources []struct {
		Content *entities.EvidenceRecord `json:"content"`
	} `json:"sources"`
}

// Query sends one utterance and returns the answer with its evidence. The
// envelope is validated strictly: a missing answer or a source entry without
// a content object fails the call.
func (c *Client) Query(ctx context.Context, sessionID, query string) (*entities.ChatResponse, error) {
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/chat/query", queryRequest{sessionID, query}, &resp); err != nil {
		return nil, err
	}
	if resp.Answer == "" {
		return nil, fmt.Errorf("malformed query response: missing answer")
	}

	sources := make([]entities.EvidenceRecord, len(resp.Sources))
	for i, s := range resp.Sources {
		if s.Content == nil {
			return nil, fmt.Errorf("malformed query response: source %d has no content", i)
		}
		sources[i] = *s.Content
	}
	return &entities.ChatResponse{Answer: resp.Answer, Sources: sources}, nil
}

// DeleteSession asks the service to discard all state for sessionID.
// Callers treat failures as advisory; the endpoint returns no body.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/chat/session/"+url.PathEscape(sessionID), nil, nil)
}

// Ingest submits a batch of log records.
func (c *Client) Ingest(ctx context.Context, records []entities.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/logs/ingest", records, nil)
}
