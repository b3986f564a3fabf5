package docsops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend defines the DocsOps operations the dashboard consumes.
// This interface is implemented by *Client and can be faked in tests.
type Backend interface {
	FetchDocuments(ctx context.Context) ([]Document, error)
	FetchDashboardStats(ctx context.Context) (DashboardStats, error)
	FetchFolderStats(ctx context.Context) (FolderStats, error)
	FetchNotifications(ctx context.Context) ([]Notification, error)
	SearchDocuments(ctx context.Context, query string) ([]Document, error)
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteDocument(ctx context.Context, id ID) error
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// TokenSource supplies the bearer token of the current session.
// Implementations return ErrUnauthenticated when no user is signed in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the DocsOps HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
	logger    *zap.Logger
}

// ClientOptions configure NewClient.
type ClientOptions struct {
	BaseURL    string
	Tokens     TokenSource
	Timeout    time.Duration // zero uses requestTimeout
	HTTPClient *http.Client  // optional; overrides Timeout
	Logger     *zap.Logger
}

const (
	defaultBaseURL   = "https://api.docsops.me/api/v1"
	defaultUserAgent = "docwatch/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the given API base URL.
func NewClient(opts ClientOptions) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		tokens:    opts.Tokens,
		userAgent: defaultUserAgent,
		logger:    logger.With(zap.String("component", "docsops")),
	}, nil
}

// FetchDocuments retrieves the signed-in user's document list.
func (c *Client) FetchDocuments(ctx context.Context) ([]Document, error) {
	const path = "/documents/list"
	var payload documentsPayload
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: path}, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || payload.Data.Documents == nil {
		return nil, malformed(path, "missing data.documents")
	}
	return *payload.Data.Documents, nil
}

// FetchDashboardStats retrieves the dashboard counters.
func (c *Client) FetchDashboardStats(ctx context.Context) (DashboardStats, error) {
	const path = "/documents/stats"
	var payload statsPayload
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: path}, &payload); err != nil {
		return DashboardStats{}, err
	}
	if payload.Data == nil {
		return DashboardStats{}, malformed(path, "missing data")
	}
	return *payload.Data, nil
}

// FetchFolderStats retrieves the per-category counters.
func (c *Client) FetchFolderStats(ctx context.Context) (FolderStats, error) {
	const path = "/documents/folder-stats"
	var payload folderStatsPayload
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: path}, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, malformed(path, "missing data")
	}
	if *payload.Data == nil {
		return FolderStats{}, nil
	}
	return *payload.Data, nil
}

// FetchNotifications retrieves the user's notifications. Notifications are
// best effort: network and schema failures are logged and reported as an
// empty successful result. Missing sessions and cancellation still propagate.
func (c *Client) FetchNotifications(ctx context.Context) ([]Notification, error) {
	const path = "/documents/notifications"
	items, err := c.fetchNotifications(ctx, path)
	if err == nil {
		return items, nil
	}
	if errors.Is(err, ErrUnauthenticated) || ctx.Err() != nil {
		return nil, err
	}
	c.logger.Warn("notifications unavailable, using empty list", zap.Error(err))
	return []Notification{}, nil
}

func (c *Client) fetchNotifications(ctx context.Context, path string) ([]Notification, error) {
	var payload notificationsPayload
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: path}, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || payload.Data.Notifications == nil {
		return nil, malformed(path, "missing data.notifications")
	}
	return *payload.Data.Notifications, nil
}

// SearchDocuments looks up documents by title or description. A blank query
// returns an empty result without contacting the server.
func (c *Client) SearchDocuments(ctx context.Context, query string) ([]Document, error) {
	const path = "/documents/search"
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return []Document{}, nil
	}
	values := url.Values{}
	values.Set("q", trimmed)
	var payload documentsPayload
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: path, RawQuery: values.Encode()}, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || payload.Data.Documents == nil {
		return nil, malformed(path, "missing data.documents")
	}
	return *payload.Data.Documents, nil
}

// MarkAllNotificationsRead flips every sent notification to read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, &url.URL{Path: "/documents/notifications/mark-all-read"}, nil)
}

// DeleteDocument soft-deletes a document; the server marks it deleted.
func (c *Client) DeleteDocument(ctx context.Context, id ID) error {
	trimmed := strings.TrimSpace(string(id))
	if trimmed == "" {
		return fmt.Errorf("document id required")
	}
	return c.do(ctx, http.MethodDelete, &url.URL{Path: "/documents/" + url.PathEscape(trimmed)}, nil)
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return ErrUnauthenticated
	}

	reqURL := c.baseURL.JoinPath(rel.Path)
	reqURL.RawQuery = rel.RawQuery
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Method: method, Path: rel.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Method: method, Path: rel.Path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", rel.Path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: rel.Path, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if dest == nil {
		return nil
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return malformed(rel.Path, "empty body")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return malformed(rel.Path, "decode response: %v", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
