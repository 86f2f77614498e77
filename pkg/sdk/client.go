package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// Client talks to the StartupVerse REST backend. Every call is authorised
// with the caller's identity provider ID token; use ForToken to bind one.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for backend calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.Timeout = d
	}
}

// NewClient creates a client for the backend at baseURL. A pooled
// http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = cleanhttp.DefaultPooledClient()
	}
	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
	}
}

// ForToken returns a client that sends idToken as its bearer credential.
// The connection pool is shared with c.
func (c *Client) ForToken(idToken string) *Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		baseURL: c.baseURL,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: idToken, TokenType: "Bearer"}),
				Base:   base,
			},
			Timeout: c.httpClient.Timeout,
		},
	}
}

// ListStartups returns every startup visible to the caller.
func (c *Client) ListStartups(ctx context.Context) ([]Startup, error) {
	var out []Startup
	if err := c.do(ctx, "list startups", http.MethodGet, "/api/startups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStartup fetches one startup.
func (c *Client) GetStartup(ctx context.Context, id string) (*Startup, error) {
	var out Startup
	if err := c.do(ctx, "get startup", http.MethodGet, "/api/startups/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStartup submits a founder's startup.
func (c *Client) CreateStartup(ctx context.Context, input CreateStartupInput) (*Startup, error) {
	if input.FounderUID == "" {
		return nil, fmt.Errorf("founder uid is required")
	}
	var out Startup
	if err := c.do(ctx, "create startup", http.MethodPost, "/api/startups", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMemo fetches one memo.
func (c *Client) GetMemo(ctx context.Context, id string) (*Memo, error) {
	var out Memo
	if err := c.do(ctx, "get memo", http.MethodGet, "/api/memos/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMemos returns every memo (admin).
func (c *Client) ListMemos(ctx context.Context) ([]Memo, error) {
	var out []Memo
	if err := c.do(ctx, "list memos", http.MethodGet, "/api/memos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FounderDashboard returns the caller's startup, memos and investor interest.
func (c *Client) FounderDashboard(ctx context.Context) (*FounderDashboard, error) {
	var out FounderDashboard
	if err := c.do(ctx, "founder dashboard", http.MethodGet, "/api/founder/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signup asks an administrator to approve the caller with the requested role.
func (c *Client) Signup(ctx context.Context, input SignupInput) error {
	return c.do(ctx, "signup", http.MethodPost, "/api/v1/auth/signup", input, nil)
}

// GoogleSignIn lets the backend provision a Google account and set its role claim.
func (c *Client) GoogleSignIn(ctx context.Context) error {
	return c.do(ctx, "google sign-in", http.MethodPost, "/api/v1/auth/google-signin", nil, nil)
}

// Me returns the backend's view of the caller.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.do(ctx, "me", http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns every account (admin).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, "list users", http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMeetings returns the caller's meetings.
func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	if err := c.do(ctx, "list meetings", http.MethodGet, "/api/meetings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMeeting schedules a meeting.
func (c *Client) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*Meeting, error) {
	var out Meeting
	if err := c.do(ctx, "create meeting", http.MethodPost, "/api/meetings", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(data)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
