package providers

import (
	"context"
	"fmt"
	"net/http"
)

const (
	ProviderTypeMistral    ProviderType = "mistral"
	ProviderSubpathMistral string       = "/v1/chat/completions"
	ProviderBaseURLMistral string       = "https://api.mistral.ai"
	defaultMistralModel    string       = "mistral-large-latest"
)

// MistralProvider speaks the OpenAI-compatible chat completions API
type MistralProvider struct {
	baseURL  string
	apiKey   string
	model    string
	settings Settings
	client   *http.Client
}

func NewMistralProvider(baseURL string, apiKey string, model string, settings Settings, client *http.Client) *MistralProvider {
	if baseURL == "" {
		baseURL = ProviderBaseURLMistral
	}
	if model == "" {
		model = defaultMistralModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &MistralProvider{
		baseURL:  normalizeBaseURL(baseURL),
		apiKey:   apiKey,
		model:    model,
		settings: settings,
		client:   client,
	}
}

func (p *MistralProvider) GetName() string {
	return "Mistral"
}

func (p *MistralProvider) GetType() ProviderType {
	return ProviderTypeMistral
}

func (p *MistralProvider) Translate(ctx context.Context, req Request) (string, error) {
	return translateHTTP(ctx, p.client, p, req)
}

func (p *MistralProvider) endpoint() string {
	return p.baseURL + ProviderSubpathMistral
}

func (p *MistralProvider) buildRequestBody(req Request) map[string]interface{} {
	return chatCompletionsBody(p.model, p.settings, req)
}

func (p *MistralProvider) SetAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

func (p *MistralProvider) SetAddlHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (p *MistralProvider) ExtractResponseText(data map[string]interface{}) (string, error) {
	return extractChatCompletionText(data)
}

func (p *MistralProvider) ValidateConfig() error {
	if p.baseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if p.apiKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}
