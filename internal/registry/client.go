// Package registry calls the apps-site registration REST API on behalf of a
// signed-in user. All requests carry the user's OAuth bearer token.
package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 10 * time.Second

// tracer instruments upstream registry calls.
var tracer = otel.Tracer("github.com/csipacific/dashboard/internal/registry")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry request %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client issues authenticated requests against the registration API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a registry client rooted at the site base URL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("site url is required")
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// get performs one bearer-authenticated GET and returns the response body.
// rawURL may be absolute (pagination "next" links) or site-relative.
func (c *Client) get(ctx context.Context, token, rawURL string, params url.Values) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("registry client is not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("bearer token is required")
	}

	target := rawURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(target, "/")
	}
	if len(params) > 0 {
		parsed, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse registry url %q: %w", target, err)
		}
		query := parsed.Query()
		for key, values := range params {
			for _, value := range values {
				query.Add(key, value)
			}
		}
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	ctx, span := tracer.Start(ctx, "registry.get",
		trace.WithAttributes(attribute.String("http.url", target)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request %s: %w", target, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}
	return body, nil
}
