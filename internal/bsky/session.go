package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ErrSessionNotFound is returned when no saved session exists.
var ErrSessionNotFound = errors.New("session not found")

// Session holds the credentials of an authenticated account.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"access_jwt"`
	RefreshJwt string `json:"refresh_jwt"`
}

// AuthOption configures the Authenticator.
type AuthOption func(*Authenticator)

// WithAuthHTTPClient sets a custom HTTP client.
func WithAuthHTTPClient(httpClient HTTPClient) AuthOption {
	return func(a *Authenticator) {
		a.httpClient = httpClient
	}
}

// WithAuthBaseURL sets a custom base URL (useful for testing).
func WithAuthBaseURL(url string) AuthOption {
	return func(a *Authenticator) {
		a.baseURL = url
	}
}

// Authenticator creates and refreshes sessions against the PDS.
type Authenticator struct {
	baseURL    string
	httpClient HTTPClient
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Login exchanges an identifier (handle or email) and app password for
// a session.
func (a *Authenticator) Login(ctx context.Context, identifier, appPassword string) (*Session, error) {
	body, err := a.post(ctx, "com.atproto.server.createSession", "", map[string]string{
		"identifier": identifier,
		"password":   appPassword,
	})
	if err != nil {
		return nil, err
	}
	return parseSession(body)
}

// Refresh exchanges a session's refresh token for fresh credentials.
func (a *Authenticator) Refresh(ctx context.Context, session *Session) (*Session, error) {
	body, err := a.post(ctx, "com.atproto.server.refreshSession", session.RefreshJwt, nil)
	if err != nil {
		return nil, err
	}
	return parseSession(body)
}

func (a *Authenticator) post(ctx context.Context, method, bearer string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := fmt.Sprintf("%s/xrpc/%s", a.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("invalid identifier or app password")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed: status %d", resp.StatusCode)
	}
	return body, nil
}

func parseSession(body []byte) (*Session, error) {
	var response struct {
		DID        string `json:"did"`
		Handle     string `json:"handle"`
		AccessJwt  string `json:"accessJwt"`
		RefreshJwt string `json:"refreshJwt"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &Session{
		DID:        response.DID,
		Handle:     response.Handle,
		AccessJwt:  response.AccessJwt,
		RefreshJwt: response.RefreshJwt,
	}, nil
}

// SessionStorage persists the session under the config directory.
type SessionStorage struct {
	dir string
}

// NewSessionStorage creates storage rooted at dir.
func NewSessionStorage(dir string) *SessionStorage {
	return &SessionStorage{dir: dir}
}

// Save writes the session to disk, readable only by the user.
func (s *SessionStorage) Save(session *Session) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "session.json"), data, 0600)
}

// Load reads the saved session, or ErrSessionNotFound when the user
// has never logged in.
func (s *SessionStorage) Load() (*Session, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "session.json")) // #nosec G304 -- path is rooted in the config dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
