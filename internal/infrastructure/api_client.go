package infrastructure

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
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
	maxResponseBody    = 1 << 20
)

// HTTPStatusError captures non-200 upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// apiClient holds what every REST lookup client shares.
type apiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*apiClient)

func WithBaseURL(baseURL string) Option {
	return func(c *apiClient) {
		if u := strings.TrimSpace(baseURL); u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *apiClient) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *apiClient) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func newAPIClient(baseURL, apiKey string, opts []Option) apiClient {
	c := apiClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON issues a GET with query params and decodes a 200 JSON body into out.
func (c *apiClient) getJSON(ctx context.Context, params url.Values, out any) error {
	endpoint := c.baseURL
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doJSON(req, c.baseURL, out)
}

func (c *apiClient) doJSON(req *http.Request, reportURL string, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err, reportURL)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        reportURL,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// transportError drops the request URL from a *url.Error. Query strings and
// paths carry API keys and bot tokens, so only reportURL is kept.
func transportError(err error, reportURL string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s: %w", uerr.Op, reportURL, uerr.Err)
	}
	return err
}
