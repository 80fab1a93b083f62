package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthorized indicates the bearer token was missing, invalid or
// expired. Callers treat it as a signal to re-run login.
var ErrUnauthorized = errors.New("unauthorized")

// TokenSource supplies the bearer token attached to each request
type TokenSource interface {
	Token() string
}

// Client wraps the document-chat backend's JSON-over-HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient creates a new backend API client
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     zap.NewNop(),
	}
}

// SetLogger replaces the client's logger
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// UploadDocument uploads a file as multipart form data and returns the
// minted document metadata
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader, tags []string) (*Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	for _, tag := range tags {
		if err := mw.WriteField("tags", tag); err != nil {
			return nil, fmt.Errorf("failed to write tag field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	env, err := c.do(ctx, http.MethodPost, "/api/documents", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	if env.Document == nil {
		return nil, fmt.Errorf("upload response missing document")
	}
	return env.Document, nil
}

// ListDocuments returns all documents owned by the user
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/documents", nil)
	if err != nil {
		return nil, err
	}
	return env.Documents, nil
}

// GetDocument returns metadata for a single document
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if env.Document == nil {
		return nil, fmt.Errorf("document response missing document")
	}
	return env.Document, nil
}

// DeleteDocument removes a document and its server-side chunks
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil)
	return err
}

// CreateThread creates a thread seeded from the first message text
func (c *Client) CreateThread(ctx context.Context, req *CreateThreadRequest) (*Thread, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/api/threads", req)
	if err != nil {
		return nil, err
	}
	if env.Thread == nil {
		return nil, fmt.Errorf("thread response missing thread")
	}
	return env.Thread, nil
}

// ListThreads returns the user's threads, most recently updated first
func (c *Client) ListThreads(ctx context.Context) ([]Thread, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/threads", nil)
	if err != nil {
		return nil, err
	}
	return env.Threads, nil
}

// DeleteThread removes a thread and its history
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/api/threads/"+url.PathEscape(id), nil)
	return err
}

// UpdateThreadDocuments replaces the document context attached to a thread
func (c *Client) UpdateThreadDocuments(ctx context.Context, id string, documentIDs []string) (*Thread, error) {
	body := map[string][]string{"selected_documents": documentIDs}
	env, err := c.doJSON(ctx, http.MethodPut, "/api/threads/"+url.PathEscape(id)+"/documents", body)
	if err != nil {
		return nil, err
	}
	if env.Thread == nil {
		return nil, fmt.Errorf("thread response missing thread")
	}
	return env.Thread, nil
}

// SendMessage posts a user message and returns the assistant reply
func (c *Client) SendMessage(ctx context.Context, threadID string, req *SendMessageRequest) (*Message, error) {
	env, err := c.doJSON(ctx, http.MethodPost, "/api/threads/"+url.PathEscape(threadID)+"/messages", req)
	if err != nil {
		return nil, err
	}
	if env.Message == nil {
		return nil, fmt.Errorf("send response missing message")
	}
	return env.Message, nil
}

// GetThreadContext fetches a thread's full ordered message history
func (c *Client) GetThreadContext(ctx context.Context, threadID string) ([]Message, error) {
	env, err := c.doJSON(ctx, http.MethodGet, "/api/threads/"+url.PathEscape(threadID)+"/context", nil)
	if err != nil {
		return nil, err
	}
	return env.Messages, nil
}

// doJSON marshals body (when non-nil) and performs the request
func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*envelope, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, r, "application/json")
}

// do performs an authenticated request and decodes the success envelope
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Warn("api error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("api error: %d - %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Success == nil {
		return nil, fmt.Errorf("malformed response: missing success flag")
	}
	if !*env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("api error: %s", env.Error)
		}
		return nil, fmt.Errorf("api error: request not successful")
	}

	c.logger.Debug("request ok", zap.String("method", method), zap.String("path", path))
	return &env, nil
}
