// Package jira fetches issue data from the Jira REST API.
package jira

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andywolf/jiracomments/internal/config"
	"github.com/andywolf/jiracomments/internal/security"
)

// Client issues authenticated requests against one Jira instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	authMode   string
	user       string
	password   string
	signer     *JWTSigner
	limiter    *security.RateLimiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client for the Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the scheme, host and port derived from the config
// (useful for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// NewClient creates a Client from a validated configuration.
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	timeout := cfg.RequestTimeout()
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Insecure {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for self-signed Jira servers
		}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    fmt.Sprintf("%s://%s:%d", cfg.Protocol, cfg.Host, cfg.Port),
		apiVersion: cfg.APIVersion,
		authMode:   cfg.AuthMode,
		user:       cfg.User,
		password:   cfg.Password,
	}

	if cfg.AuthMode == config.AuthJWT {
		signer, err := NewJWTSigner(cfg.JWTIssuer, cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create jwt signer: %w", err)
		}
		c.signer = signer
	}

	if cfg.RateLimit > 0 {
		c.limiter = security.NewRateLimiter(cfg.RateLimit, time.Second)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// MakeURI returns the absolute REST API URI for pathname and query.
func (c *Client) MakeURI(pathname string, query url.Values) string {
	uri := fmt.Sprintf("%s/rest/api/%s%s", c.baseURL, c.apiVersion, pathname)
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	return uri
}

// CommentsURI returns the URI listing the comments of issue, with the
// expand parameter when it is non-empty.
func (c *Client) CommentsURI(issue, expand string) string {
	query := url.Values{}
	if expand != "" {
		query.Set("expand", expand)
	}
	return c.MakeURI("/issue/"+url.PathEscape(issue)+"/comment", query)
}

// GetComments fetches the comment page of issue and returns the decoded
// JSON document. Numbers are decoded as json.Number so they are passed on
// unchanged.
func (c *Client) GetComments(ctx context.Context, issue, expand string) (any, error) {
	return c.getJSON(ctx, c.CommentsURI(issue, expand))
}

func (c *Client) getJSON(ctx context.Context, uri string) (any, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return doc, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.signer != nil {
		token, err := c.signer.Sign(req.Method, req.URL)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "JWT "+token)
		return nil
	}

	req.SetBasicAuth(c.user, c.password)
	return nil
}
