package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-chapters/internal/apierr"
)

const defaultOpenAIModel = openai.GPT4oMini

// chatCompleter is the slice of *openai.Client the backend needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var (
	_ chatCompleter = (*openai.Client)(nil)
	_ Generator     = (*OpenAIGenerator)(nil)
)

// OpenAIGenerator generates text with OpenAI chat completions.
type OpenAIGenerator struct {
	settings
	client chatCompleter
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	return newOpenAI(openai.NewClient(apiKey), opts...), nil
}

func newOpenAI(client chatCompleter, opts ...Option) *OpenAIGenerator {
	g := &OpenAIGenerator{
		settings: defaultSettings(defaultOpenAIModel),
		client:   client,
	}
	g.apply(opts)
	return g
}

// Generate sends the prompt as a system + user message pair.
func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if err := g.checkLength(p); err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model:               g.model,
		Temperature:         g.temperature,
		MaxCompletionTokens: g.maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	}

	return g.retry(ctx, ProviderOpenAI, func() (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classifyOpenAIError(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// classifyOpenAIError maps OpenAI API errors to sentinel errors.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	return apierr.FromContext(err)
}
