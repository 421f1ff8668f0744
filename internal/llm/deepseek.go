package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/go-chapters/internal/apierr"
)

// DeepSeek API configuration.
const (
	defaultDeepSeekBaseURL     = "https://api.deepseek.com"
	defaultDeepSeekModel       = "deepseek-chat"
	defaultDeepSeekHTTPTimeout = 5 * time.Minute

	// Response size limit to prevent OOM from malformed responses (10MB).
	maxResponseSize = 10 * 1024 * 1024
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Generator = (*DeepSeekGenerator)(nil)

// DeepSeekGenerator generates text with DeepSeek's chat completion API.
type DeepSeekGenerator struct {
	settings
	apiKey string
}

// WithBaseURL sets a custom API base URL (for proxies). DeepSeek only.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// withHTTPClient injects an HTTP client. DeepSeek only.
func withHTTPClient(c httpDoer) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// NewDeepSeek creates a DeepSeek backend.
func NewDeepSeek(apiKey string, opts ...Option) (*DeepSeekGenerator, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	g := &DeepSeekGenerator{
		settings: defaultSettings(defaultDeepSeekModel),
		apiKey:   apiKey,
	}
	g.baseURL = defaultDeepSeekBaseURL
	g.apply(opts)
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: defaultDeepSeekHTTPTimeout}
	}
	return g, nil
}

// Generate sends the prompt to DeepSeek, retrying transient failures.
func (g *DeepSeekGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if err := g.checkLength(p); err != nil {
		return "", err
	}

	req := deepSeekRequest{
		Model:       g.model,
		MaxTokens:   g.maxOutputTokens,
		Temperature: float64(g.temperature),
		Messages: []deepSeekMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
	}

	return g.retry(ctx, ProviderDeepSeek, func() (string, error) {
		resp, err := g.callAPI(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", fmt.Errorf("deepseek: %w", ErrEmptyResponse)
		}
		return resp.Choices[0].Message.Content, nil
	})
}

type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature"`
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type deepSeekErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// callAPI makes one HTTP request and returns a classified error on failure.
func (g *DeepSeekGenerator) callAPI(ctx context.Context, reqBody deepSeekRequest) (_ *deepSeekResponse, err error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apierr.FromContext(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.FromStatus(resp.StatusCode, parseDeepSeekError(respBody))
	}

	var result deepSeekResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// parseDeepSeekError extracts the provider message from an error body,
// falling back to the raw body.
func parseDeepSeekError(body []byte) string {
	var errResp deepSeekErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return strings.TrimSpace(string(body))
	}
	return errResp.Error.Message
}
