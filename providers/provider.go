package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hannes/medvoice-private/config"
)

type ProviderType string

// Request is a single translation request. Text must already be redacted.
type Request struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}

// Provider defines the interface all translation providers must implement
type Provider interface {
	GetType() ProviderType
	GetName() string

	// Translate returns the translated text for req
	Translate(ctx context.Context, req Request) (string, error)

	// ValidateConfig checks if provider configuration is valid
	ValidateConfig() error
}

// ErrEmptyTranslation is returned when a provider answers without any text
var ErrEmptyTranslation = errors.New("provider returned an empty translation")

// APIError is a non-2xx answer from a provider's HTTP API
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Settings holds generation parameters shared by all providers
type Settings struct {
	MaxTokens   int
	Temperature float32
}

// DefaultSettings returns the generation parameters used for translation
func DefaultSettings() Settings {
	return Settings{MaxTokens: 1000, Temperature: 0.1}
}

func settingsFromConfig(tc config.TranslationConfig) Settings {
	s := DefaultSettings()
	if tc.MaxTokens > 0 {
		s.MaxTokens = tc.MaxTokens
	}
	if tc.Temperature > 0 {
		s.Temperature = tc.Temperature
	}
	return s
}

// NewProvider builds the provider selected by tc.Provider
func NewProvider(ctx context.Context, tc config.TranslationConfig) (Provider, error) {
	settings := settingsFromConfig(tc)
	timeout := tc.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var provider Provider
	switch strings.ToLower(tc.Provider) {
	case string(ProviderTypeOpenAI):
		provider = NewOpenAIProvider(tc.OpenAI.BaseURL, tc.OpenAI.APIKey, tc.OpenAI.Model, settings, client)
	case string(ProviderTypeAnthropic):
		provider = NewAnthropicProvider(tc.Anthropic.BaseURL, tc.Anthropic.APIKey, tc.Anthropic.Model, settings, client, nil)
	case string(ProviderTypeMistral):
		provider = NewMistralProvider(tc.Mistral.BaseURL, tc.Mistral.APIKey, tc.Mistral.Model, settings, client)
	case string(ProviderTypeGemini):
		p, err := NewGeminiProvider(ctx, tc.Gemini.APIKey, tc.Gemini.Model, settings)
		if err != nil {
			return nil, err
		}
		provider = p
	case string(ProviderTypeBedrock):
		p, err := NewBedrockProviderFromConfig(ctx, tc.Bedrock.Region, tc.Bedrock.ModelID, settings)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unknown translation provider '%s'", tc.Provider)
	}

	if err := provider.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("%s provider: %w", provider.GetName(), err)
	}
	return provider, nil
}

// normalizeBaseURL strips trailing slashes so paths can be appended directly
func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}
