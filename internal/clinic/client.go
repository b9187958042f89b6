// Package clinic calls the clinic practice-management REST API (appointments,
// encounters, complaints) that backs the training board. Authentication is an
// api_key query parameter issued per tenant.
package clinic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 20 * time.Second

// pageSize is the clinic list chunk size; a short page ends iteration.
const pageSize = 100

// maxPages caps list pagination against a misbehaving upstream.
const maxPages = 1000

var tracer = otel.Tracer("github.com/csipacific/dashboard/internal/clinic")

// StatusError reports a non-2xx clinic response.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("clinic request %s: unexpected status %d", e.Path, e.StatusCode)
}

// IsNotFound reports whether the error is an upstream 400/404, which the
// clinic API uses interchangeably for unknown resource variants.
func IsNotFound(err error) bool {
	statusErr, ok := err.(*StatusError)
	if !ok {
		return false
	}
	return statusErr.StatusCode == http.StatusBadRequest || statusErr.StatusCode == http.StatusNotFound
}

// Client issues requests against one clinic tenant.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a clinic client for the tenant API base URL.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("clinic base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("clinic api key is required")
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// get performs one GET against a clinic path with the api_key applied.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("clinic client is not configured")
	}
	path = strings.TrimLeft(strings.TrimSpace(path), "/")

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("api_key", c.apiKey)
	target := c.baseURL + "/" + path + "?" + query.Encode()

	ctx, span := tracer.Start(ctx, "clinic.get",
		trace.WithAttributes(attribute.String("clinic.path", path)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build clinic request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clinic request %s: %w", path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read clinic response: %w", err)
	}
	return body, nil
}

// listBlock extracts the row array from a clinic list response, which is
// either {"list": [...]} or a bare array.
func listBlock(body []byte) gjson.Result {
	parsed := gjson.ParseBytes(body)
	if block := parsed.Get("list"); block.IsArray() {
		return block
	}
	if parsed.IsArray() {
		return parsed
	}
	return gjson.Result{}
}

// pagedList walks page/count pagination until an empty or short page.
func (c *Client) pagedList(ctx context.Context, path string, params url.Values) ([]gjson.Result, error) {
	var rows []gjson.Result
	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		for key, values := range params {
			query[key] = values
		}
		query.Set("page", strconv.Itoa(page))
		query.Set("count", strconv.Itoa(pageSize))

		body, err := c.get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		block := listBlock(body)
		items := block.Array()
		if len(items) == 0 {
			return rows, nil
		}
		rows = append(rows, items...)
		if len(items) < pageSize {
			return rows, nil
		}
	}
	return nil, fmt.Errorf("clinic pagination for %s exceeded %d pages", path, maxPages)
}

// tidyDate reduces a clinic date value to YYYY-MM-DD. Appointment dates are
// sometimes objects carrying a "start" timestamp.
func tidyDate(value gjson.Result) string {
	raw := value.String()
	if value.IsObject() {
		raw = value.Get("start").String()
	}
	return tidyDateString(raw)
}

func tidyDateString(raw string) string {
	if idx := strings.Index(raw, "T"); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

// ParseDay parses a tidied date into a UTC day, reporting success.
func ParseDay(value string) (time.Time, bool) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
