// Package client talks to the issues API over HTTP.
//
// Authentication is a bearer token supplied through an oauth2 token source,
// so the same client works with a session token copied from the browser
// cookie or with any other source that yields one.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/issue-tracker/internal/model"
)

// HTTPClient is the subset of *http.Client the client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the issues API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// New builds a client for baseURL. A non-empty token is sent as
// "Authorization: Bearer <token>" on every request.
func New(baseURL, token string, timeout time.Duration) *Client {
	hc := &http.Client{Timeout: timeout}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		hc.Timeout = timeout
	}
	return NewWithHTTPClient(baseURL, hc)
}

// NewWithHTTPClient builds a client around an existing HTTP client.
func NewWithHTTPClient(baseURL string, hc HTTPClient) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	// Message is the server's "error" field, when the body had one.
	Message string
	// Body is the raw response body.
	Body string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ListIssues returns issues newest first. An empty status lists all.
func (c *Client) ListIssues(ctx context.Context, status model.IssueStatus) ([]model.Issue, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	q.Set("limit", "100")

	var issues []model.Issue
	if err := c.do(ctx, http.MethodGet, "/api/issues?"+q.Encode(), nil, &issues); err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	return issues, nil
}

func (c *Client) GetIssue(ctx context.Context, id int64) (*model.Issue, error) {
	var issue model.Issue
	if err := c.do(ctx, http.MethodGet, issuePath(id), nil, &issue); err != nil {
		return nil, fmt.Errorf("getting issue %d: %w", id, err)
	}
	return &issue, nil
}

// UpdateIssue sends a partial update. Only the fields set in patch are sent;
// ClearAssignee sends an explicit null.
func (c *Client) UpdateIssue(ctx context.Context, id int64, patch model.IssuePatch) (*model.Issue, error) {
	var issue model.Issue
	if err := c.do(ctx, http.MethodPatch, issuePath(id), patch, &issue); err != nil {
		return nil, fmt.Errorf("updating issue %d: %w", id, err)
	}
	return &issue, nil
}

// DeleteIssue deletes an issue. Any non-2xx answer is an error.
func (c *Client) DeleteIssue(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, issuePath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting issue %d: %w", id, err)
	}
	return nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func issuePath(id int64) string {
	return "/api/issues/" + strconv.FormatInt(id, 10)
}

// do sends body (if any) as JSON and decodes a 2xx response into result
// (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
