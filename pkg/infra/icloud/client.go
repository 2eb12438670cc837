package icloud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/domain/types"
)

const (
	defaultAuthEndpoint  = "https://idmsa.apple.com/appleauth/auth"
	defaultSetupEndpoint = "https://setup.icloud.com/setup/ws/1"
	defaultHomeEndpoint  = "https://www.icloud.com"

	defaultTimeout  = 60 * time.Second
	defaultPageSize = 100

	// widgetKey identifies the iCloud web client to the Apple ID service
	widgetKey = "d39ba9916b7251055b22c7f910e2ea796ee65e98b2ddecea8f5dde8d9d1a815d"

	clientBuildNumber     = "2021Project52"
	clientMasteringNumber = "2021B29"
)

// Client talks to the iCloud web services
type Client struct {
	authEndpoint  string
	setupEndpoint string
	homeEndpoint  string
	timeout       time.Duration
	pageSize      int
	transport     http.RoundTripper
	clientID      string
}

// Option is a functional option for Client
type Option func(*Client)

// WithAuthEndpoint overrides the Apple ID authentication endpoint
func WithAuthEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.authEndpoint = endpoint
	}
}

// WithSetupEndpoint overrides the iCloud setup endpoint
func WithSetupEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.setupEndpoint = endpoint
	}
}

// WithHomeEndpoint overrides the origin sent with every request
func WithHomeEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.homeEndpoint = endpoint
	}
}

// WithTimeout sets the timeout of a single HTTP request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithPageSize sets how many photos are requested per listing page
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithTransport sets the HTTP transport
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// New creates a new iCloud client
func New(opts ...Option) *Client {
	c := &Client{
		authEndpoint:  defaultAuthEndpoint,
		setupEndpoint: defaultSetupEndpoint,
		homeEndpoint:  defaultHomeEndpoint,
		timeout:       defaultTimeout,
		pageSize:      defaultPageSize,
		transport:     http.DefaultTransport,
		clientID:      "auth-" + uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login signs in with the Apple ID and loads the account data. Each login
// owns its own cookie jar.
func (c *Client) Login(ctx context.Context, appleID string, password types.Secret) (interfaces.Login, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cookie jar")
	}

	l := &login{
		client:  c,
		appleID: appleID,
		http: &http.Client{
			Transport: c.transport,
			Timeout:   c.timeout,
			Jar:       jar,
		},
		content: &http.Client{
			Transport: c.contentTransport(),
			Jar:       jar,
		},
	}

	if err := l.signIn(ctx, password); err != nil {
		return nil, err
	}
	if err := l.accountLogin(ctx); err != nil {
		return nil, err
	}

	return l, nil
}

// contentTransport bounds only the wait for response headers, not the body
func (c *Client) contentTransport() http.RoundTripper {
	t, ok := c.transport.(*http.Transport)
	if !ok || c.timeout <= 0 {
		return c.transport
	}
	t = t.Clone()
	t.ResponseHeaderTimeout = c.timeout
	return t
}

// request sends a JSON request with the iCloud web client headers
func (l *login) request(ctx context.Context, method, url string, body any, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal request body", goerr.V("url", url))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", url))
	}

	req.Header.Set("Origin", l.client.homeEndpoint)
	req.Header.Set("Referer", l.client.homeEndpoint+"/")
	req.Header.Set("User-Agent", types.AppName+"/"+types.Version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("url", url))
	}
	return resp, nil
}

// decodeJSON reads a JSON response body into v and closes it
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode response",
			goerr.V("url", resp.Request.URL.String()),
			goerr.V("status", resp.StatusCode),
		)
	}
	return nil
}

// statusError builds an error for an unexpected response and closes its body
func statusError(resp *http.Response, msg string) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return goerr.New(msg,
		goerr.V("url", resp.Request.URL.String()),
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(body)),
	)
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
