package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/alnah/go-chapters/internal/apierr"
)

const defaultGeminiModel = "gemini-1.5-flash"

// contentGenerator is the slice of *genai.GenerativeModel the backend needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

var (
	_ contentGenerator = (*genai.GenerativeModel)(nil)
	_ Generator        = (*GeminiGenerator)(nil)
)

// GeminiGenerator generates text with Google's Gemini models.
type GeminiGenerator struct {
	settings
	client *genai.Client

	// newModel builds a model configured with the given system instruction.
	newModel func(system string) contentGenerator
}

// NewGemini creates a Gemini backend. Call Close to release the client.
func NewGemini(ctx context.Context, apiKey string, opts ...Option) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g := newGemini(nil, opts...)
	g.client = client
	g.newModel = g.clientModel
	return g, nil
}

// newGemini builds a backend around an injected model factory.
func newGemini(factory func(system string) contentGenerator, opts ...Option) *GeminiGenerator {
	g := &GeminiGenerator{
		settings: defaultSettings(defaultGeminiModel),
		newModel: factory,
	}
	g.apply(opts)
	return g
}

func (g *GeminiGenerator) clientModel(system string) contentGenerator {
	return g.configure(g.client.GenerativeModel(g.model), system)
}

// configure applies the generation settings. Replies are requested as JSON
// so the chapter array arrives without prose around it.
func (g *GeminiGenerator) configure(m *genai.GenerativeModel, system string) *genai.GenerativeModel {
	m.SetTemperature(g.temperature)
	m.SetMaxOutputTokens(int32(g.maxOutputTokens))
	m.ResponseMIMEType = "application/json"
	if system != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return m
}

// Close releases the underlying client. Safe on an injected backend.
func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Generate sends the prompt to Gemini, retrying transient failures.
func (g *GeminiGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	if err := g.checkLength(p); err != nil {
		return "", err
	}
	model := g.newModel(p.System)

	return g.retry(ctx, ProviderGemini, func() (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(p.User))
		if err != nil {
			return "", classifyGeminiError(err)
		}
		text := responseText(resp)
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
		}
		return text, nil
	})
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// classifyGeminiError maps Gemini errors to sentinel errors.
func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%v: %w", blocked, ErrBlocked)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		msg := gErr.Message
		if msg == "" {
			msg = gErr.Error()
		}
		return apierr.FromStatus(gErr.Code, msg)
	}

	return apierr.FromContext(err)
}
