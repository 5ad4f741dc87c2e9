package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept in APIError
const maxErrorBody = 4096

// httpProvider is implemented by providers reached over a JSON HTTP API
type httpProvider interface {
	Provider
	endpoint() string
	buildRequestBody(req Request) map[string]interface{}
	SetAuthHeaders(req *http.Request)
	SetAddlHeaders(req *http.Request)
	ExtractResponseText(data map[string]interface{}) (string, error)
}

// translateHTTP posts the provider's request body and extracts the answer
func translateHTTP(ctx context.Context, client *http.Client, p httpProvider, req Request) (string, error) {
	payload, err := json.Marshal(p.buildRequestBody(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	p.SetAuthHeaders(httpReq)
	p.SetAddlHeaders(httpReq)

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.GetName(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", p.GetName(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", &APIError{Provider: p.GetName(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", p.GetName(), err)
	}

	text, err := p.ExtractResponseText(data)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranslation
	}
	return text, nil
}

// chatCompletionsBody builds the OpenAI-style body shared by OpenAI and Mistral
func chatCompletionsBody(model string, settings Settings, req Request) map[string]interface{} {
	return map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": SystemPrompt(req.SourceLanguage, req.TargetLanguage)},
			{"role": "user", "content": req.Text},
		},
		"max_tokens":  settings.MaxTokens,
		"temperature": settings.Temperature,
	}
}

// extractChatCompletionText reads choices[0].message.content
func extractChatCompletionText(data map[string]interface{}) (string, error) {
	choices, ok := data["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid choice format")
	}

	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no message in choice")
	}

	content, ok := message["content"].(string)
	if !ok {
		return "", fmt.Errorf("no content in message")
	}
	return content, nil
}
