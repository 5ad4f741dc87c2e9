package providers

import (
	"context"
	"fmt"
	"net/http"
)

const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderSubpathOpenAI string       = "/v1/chat/completions"
	ProviderBaseURLOpenAI string       = "https://api.openai.com"
	defaultOpenAIModel    string       = "gpt-4"
)

type OpenAIProvider struct {
	baseURL  string
	apiKey   string
	model    string
	settings Settings
	client   *http.Client
}

func NewOpenAIProvider(baseURL string, apiKey string, model string, settings Settings, client *http.Client) *OpenAIProvider {
	if baseURL == "" {
		baseURL = ProviderBaseURLOpenAI
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIProvider{
		baseURL:  normalizeBaseURL(baseURL),
		apiKey:   apiKey,
		model:    model,
		settings: settings,
		client:   client,
	}
}

func (p *OpenAIProvider) GetName() string {
	return "OpenAI"
}

func (p *OpenAIProvider) GetType() ProviderType {
	return ProviderTypeOpenAI
}

func (p *OpenAIProvider) Translate(ctx context.Context, req Request) (string, error) {
	return translateHTTP(ctx, p.client, p, req)
}

func (p *OpenAIProvider) endpoint() string {
	return p.baseURL + ProviderSubpathOpenAI
}

func (p *OpenAIProvider) buildRequestBody(req Request) map[string]interface{} {
	return chatCompletionsBody(p.model, p.settings, req)
}

func (p *OpenAIProvider) SetAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

func (p *OpenAIProvider) SetAddlHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
}

func (p *OpenAIProvider) ExtractResponseText(data map[string]interface{}) (string, error) {
	return extractChatCompletionText(data)
}

func (p *OpenAIProvider) ValidateConfig() error {
	if p.baseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if p.apiKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}
