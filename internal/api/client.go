// Package api talks to the remote employee-directory service over HTTP.
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
	"strconv"
	"strings"
	"time"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

const (
	// RequestIDHeader carries a fresh ID on every request for log correlation.
	RequestIDHeader = "X-Request-ID"
	// ActorHeader names the acting user on creation requests.
	ActorHeader = "current"

	defaultTimeout = 30 * time.Second
)

// TokenSource provides the session whose token authorizes requests.
// *ems.Holder satisfies it.
type TokenSource interface {
	User() *ems.Session
}

// Client implements ems.API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	ids        ems.IDGenerator
	logger     ems.Logger
}

// NewClient creates a Client for cfg.BaseURL. tokens may be nil for
// unauthenticated use.
func NewClient(cfg config.APIConfig, tokens TokenSource, ids ems.IDGenerator, logger ems.Logger) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base_url: %q", raw)
	}

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if ids == nil {
		ids = ems.UUIDGenerator{}
	}
	if logger == nil {
		logger = ems.NewNopLogger()
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		ids:        ids,
		logger:     logger,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	Name        string `json:"name"`
}

// Login posts the credentials as a form to /token.
func (c *Client) Login(ctx context.Context, username, password string) (*ems.Session, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/token", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out tokenResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &ems.RemoteError{Kind: ems.KindFailed, StatusCode: http.StatusOK, Detail: "login response carried no access token"}
	}
	role, err := ems.ParseRole(out.Role)
	if err != nil {
		return nil, &ems.RemoteError{Kind: ems.KindFailed, StatusCode: http.StatusOK, Err: err}
	}

	return &ems.Session{
		Token:    out.AccessToken,
		Username: out.Username,
		Role:     role,
		Name:     out.Name,
	}, nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]ems.Employee, error) {
	var out []ems.Employee
	if err := c.doJSON(ctx, http.MethodGet, "/tabledata", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SortedEmployees(ctx context.Context, column ems.Column, desc bool) ([]ems.Employee, error) {
	q := url.Values{}
	q.Set("column", string(column))
	q.Set("desc", strconv.FormatBool(desc))

	var out []ems.Employee
	if err := c.doJSON(ctx, http.MethodGet, "/sort", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FilterEmployees(ctx context.Context, column ems.Column, value string) ([]ems.Employee, error) {
	path := "/filter/" + url.PathEscape(string(column)) + "/" + url.PathEscape(value)

	var out []ems.Employee
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UniqueValues(ctx context.Context, column ems.Column) ([]string, error) {
	var out []string
	if err := c.doJSON(ctx, http.MethodGet, "/unique/"+url.PathEscape(string(column)), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEmployee(ctx context.Context, e ems.Employee, actor string) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding employee: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/add", nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, actor)
	return c.do(req, nil)
}

func (c *Client) UpdateEmployee(ctx context.Context, e ems.Employee, actor string) error {
	q := url.Values{}
	q.Set("current", actor)
	return c.doJSON(ctx, http.MethodPut, "/update/"+url.PathEscape(e.Username), q, e, nil)
}

func (c *Client) DeleteEmployee(ctx context.Context, username string) error {
	return c.doJSON(ctx, http.MethodDelete, "/delete/"+url.PathEscape(username), nil, nil, nil)
}

func (c *Client) AuditLog(ctx context.Context) ([]ems.AuditEntry, error) {
	var out []ems.AuditEntry
	if err := c.doJSON(ctx, http.MethodGet, "/audittabledata", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	// path segments arrive already escaped
	ref, err := url.Parse(strings.TrimRight(c.baseURL.EscapedPath(), "/") + path)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	u := *c.baseURL
	u.Path = ref.Path
	u.RawPath = ref.RawPath
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, c.ids.New())
	if c.tokens != nil {
		if s := c.tokens.User(); s != nil && s.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.Token)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return &ems.RemoteError{Kind: ems.KindNetwork, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ems.RemoteError{Kind: ems.KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}
	c.logger.Debug("request finished",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader),
		"duration", time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ems.RemoteError{Kind: ems.KindRejected, StatusCode: resp.StatusCode, Detail: detail(respBody)}
	default:
		return &ems.RemoteError{Kind: ems.KindFailed, StatusCode: resp.StatusCode, Detail: detail(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &ems.RemoteError{Kind: ems.KindFailed, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// detail extracts the human-readable part of an error payload. Payloads of
// the form {"detail": "..."} are unwrapped; anything else is returned as is.
func detail(body []byte) string {
	body = bytes.TrimSpace(body)
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return string(body)
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}

var _ ems.API = (*Client)(nil)

// IsUnauthorized reports whether err is a 401 answer from the service.
func IsUnauthorized(err error) bool {
	var re *ems.RemoteError
	return errors.As(err, &re) && re.StatusCode == http.StatusUnauthorized
}
