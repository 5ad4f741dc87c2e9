package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	ProviderTypeGemini ProviderType = "gemini"
	defaultGeminiModel string       = "gemini-2.5-flash"
)

// geminiGenerator is the part of the genai client the provider needs
type geminiGenerator interface {
	GenerateContent(ctx context.Context, model string, settings Settings, systemPrompt string, text string) (*genai.GenerateContentResponse, error)
	Close() error
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) GenerateContent(ctx context.Context, modelID string, settings Settings, systemPrompt string, text string) (*genai.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(modelID)
	model.SetTemperature(settings.Temperature)
	if settings.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(settings.MaxTokens))
	}
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	return model.GenerateContent(ctx, genai.Text(text))
}

func (g *genaiGenerator) Close() error {
	return g.client.Close()
}

type GeminiProvider struct {
	generator geminiGenerator
	model     string
	settings  Settings
}

// NewGeminiProvider creates a Gemini provider backed by the genai client
func NewGeminiProvider(ctx context.Context, apiKey string, model string, settings Settings) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiProvider(&genaiGenerator{client: client}, model, settings), nil
}

func newGeminiProvider(generator geminiGenerator, model string, settings Settings) *GeminiProvider {
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{generator: generator, model: model, settings: settings}
}

func (p *GeminiProvider) GetName() string {
	return "Gemini"
}

func (p *GeminiProvider) GetType() ProviderType {
	return ProviderTypeGemini
}

func (p *GeminiProvider) Translate(ctx context.Context, req Request) (string, error) {
	resp, err := p.generator.GenerateContent(ctx, p.model, p.settings, SystemPrompt(req.SourceLanguage, req.TargetLanguage), req.Text)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	text := extractGeminiText(resp)
	if text == "" {
		return "", ErrEmptyTranslation
	}
	return text, nil
}

// extractGeminiText joins the text parts of the first candidate
func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var result strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}
	return strings.TrimSpace(result.String())
}

func (p *GeminiProvider) ValidateConfig() error {
	if p.generator == nil {
		return fmt.Errorf("gemini client is required")
	}
	return nil
}

// Close releases resources held by the Gemini client
func (p *GeminiProvider) Close() error {
	if p.generator != nil {
		return p.generator.Close()
	}
	return nil
}
