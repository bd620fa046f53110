package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient sends single-turn prompts to the Gemini API. The SDK client is
// built on first use so a missing key surfaces as a per-call error instead of
// stopping the process.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	once   sync.Once
	client *genai.Client
	err    error
}

type GeminiOption func(*GeminiClient)

func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithGeminiHTTPClient(httpClient *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.httpClient = httpClient
	}
}

func NewGeminiClient(apiKey, model string, opts ...GeminiOption) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	c := &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) resolveClient(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		if c.apiKey == "" {
			c.err = errors.New("gemini: API key is not configured")
			return
		}
		cfg := &genai.ClientConfig{
			APIKey:     c.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: c.httpClient,
		}
		if c.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		c.client, c.err = genai.NewClient(ctx, cfg)
		if c.err != nil {
			c.err = fmt.Errorf("gemini: create client: %w", c.err)
		}
	})
	return c.client, c.err
}

// Generate returns the model's text for prompt. An empty string with a nil
// error means the model produced no text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := c.resolveClient(ctx)
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	return resp.Text(), nil
}
