package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	ProviderTypeAnthropic    ProviderType = "anthropic"
	ProviderSubpathAnthropic string       = "/v1/messages"
	ProviderBaseURLAnthropic string       = "https://api.anthropic.com"
	defaultAnthropicModel    string       = "claude-3-5-sonnet-latest"
)

type AnthropicProvider struct {
	baseURL         string
	apiKey          string
	model           string
	settings        Settings
	client          *http.Client
	requiredHeaders map[string]string
}

func NewAnthropicProvider(baseURL string, apiKey string, model string, settings Settings, client *http.Client, requiredHeaders map[string]string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = ProviderBaseURLAnthropic
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	if requiredHeaders == nil {
		requiredHeaders = map[string]string{
			"anthropic-version": "2023-06-01",
		}
	}
	return &AnthropicProvider{
		baseURL:         normalizeBaseURL(baseURL),
		apiKey:          apiKey,
		model:           model,
		settings:        settings,
		client:          client,
		requiredHeaders: requiredHeaders,
	}
}

func (p *AnthropicProvider) GetName() string {
	return "Anthropic"
}

func (p *AnthropicProvider) GetType() ProviderType {
	return ProviderTypeAnthropic
}

func (p *AnthropicProvider) Translate(ctx context.Context, req Request) (string, error) {
	return translateHTTP(ctx, p.client, p, req)
}

func (p *AnthropicProvider) endpoint() string {
	return p.baseURL + ProviderSubpathAnthropic
}

func (p *AnthropicProvider) buildRequestBody(req Request) map[string]interface{} {
	return map[string]interface{}{
		"model":  p.model,
		"system": SystemPrompt(req.SourceLanguage, req.TargetLanguage),
		"messages": []map[string]string{
			{"role": "user", "content": req.Text},
		},
		"max_tokens":  p.settings.MaxTokens,
		"temperature": p.settings.Temperature,
	}
}

func (p *AnthropicProvider) SetAuthHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.apiKey)
}

func (p *AnthropicProvider) SetAddlHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")

	// Add required headers (e.g., anthropic-version)
	for key, value := range p.requiredHeaders {
		req.Header.Set(key, value)
	}
}

func (p *AnthropicProvider) ExtractResponseText(data map[string]interface{}) (string, error) {
	// Anthropic response format:
	// {
	//   "content": [{"type": "text", "text": "..."}],
	//   "role": "assistant"
	// }
	content, ok := data["content"].([]interface{})
	if !ok || len(content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var result strings.Builder
	for _, item := range content {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if itemMap["type"] == "text" {
			if text, ok := itemMap["text"].(string); ok {
				result.WriteString(text)
			}
		}
	}

	return result.String(), nil
}

func (p *AnthropicProvider) ValidateConfig() error {
	if p.baseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if p.apiKey == "" {
		return fmt.Errorf("API key is required")
	}
	return nil
}
