package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func converseText(parts ...string) *bedrockruntime.ConverseOutput {
	blocks := make([]brtypes.ContentBlock, 0, len(parts))
	for _, p := range parts {
		blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: p})
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks},
		},
	}
}

func TestBedrockProvider_Translate(t *testing.T) {
	api := &fakeConverse{out: converseText("Bonjour ", "[PHONE]")}
	p := NewBedrockProvider(api, "anthropic.claude-test", DefaultSettings())

	got, err := p.Translate(context.Background(), Request{Text: "Hello [PHONE]", SourceLanguage: "en-US", TargetLanguage: "fr-FR"})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour [PHONE]", got)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.claude-test", aws.ToString(api.input.ModelId))
	require.Len(t, api.input.System, 1)
	system, ok := api.input.System[0].(*brtypes.SystemContentBlockMemberText)
	require.True(t, ok)
	assert.Contains(t, system.Value, "from English to French")

	require.Len(t, api.input.Messages, 1)
	userText, ok := api.input.Messages[0].Content[0].(*brtypes.ContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, "Hello [PHONE]", userText.Value)

	require.NotNil(t, api.input.InferenceConfig)
	assert.Equal(t, int32(1000), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
	assert.InDelta(t, 0.1, aws.ToFloat32(api.input.InferenceConfig.Temperature), 1e-6)
}

func TestBedrockProvider_Errors(t *testing.T) {
	p := NewBedrockProvider(&fakeConverse{err: errors.New("throttled")}, "model", DefaultSettings())
	_, err := p.Translate(context.Background(), Request{Text: "Hello"})
	assert.ErrorContains(t, err, "throttled")

	p = NewBedrockProvider(&fakeConverse{out: converseText("  ")}, "model", DefaultSettings())
	_, err = p.Translate(context.Background(), Request{Text: "Hello"})
	assert.ErrorIs(t, err, ErrEmptyTranslation)

	p = NewBedrockProvider(&fakeConverse{out: &bedrockruntime.ConverseOutput{}}, "model", DefaultSettings())
	_, err = p.Translate(context.Background(), Request{Text: "Hello"})
	assert.ErrorContains(t, err, "did not include a message output")
}

func TestBedrockProvider_ValidateConfig(t *testing.T) {
	assert.EqualError(t, NewBedrockProvider(&fakeConverse{}, " ", DefaultSettings()).ValidateConfig(), "bedrock model id is required")
	assert.EqualError(t, NewBedrockProvider(nil, "model", DefaultSettings()).ValidateConfig(), "bedrock client is required")
	assert.Equal(t, "Bedrock", NewBedrockProvider(nil, "", DefaultSettings()).GetName())
}

type fakeGemini struct {
	model        string
	systemPrompt string
	text         string
	resp         *genai.GenerateContentResponse
	err          error
	closed       bool
}

func (f *fakeGemini) GenerateContent(_ context.Context, model string, _ Settings, systemPrompt string, text string) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.systemPrompt = systemPrompt
	f.text = text
	return f.resp, f.err
}

func (f *fakeGemini) Close() error {
	f.closed = true
	return nil
}

func TestGeminiProvider_Translate(t *testing.T) {
	fake := &fakeGemini{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("Привет "), genai.Text("[EMAIL]")}}},
		},
	}}
	p := newGeminiProvider(fake, "", DefaultSettings())

	got, err := p.Translate(context.Background(), Request{Text: "Hello [EMAIL]", SourceLanguage: "en-US", TargetLanguage: "ru-RU"})
	require.NoError(t, err)
	assert.Equal(t, "Привет [EMAIL]", got)
	assert.Equal(t, defaultGeminiModel, fake.model)
	assert.Contains(t, fake.systemPrompt, "from English to Russian")
	assert.Equal(t, "Hello [EMAIL]", fake.text)

	require.NoError(t, p.Close())
	assert.True(t, fake.closed)
}

func TestGeminiProvider_EmptyAndFailure(t *testing.T) {
	p := newGeminiProvider(&fakeGemini{resp: &genai.GenerateContentResponse{}}, "gemini-test", DefaultSettings())
	_, err := p.Translate(context.Background(), Request{Text: "Hello"})
	assert.ErrorIs(t, err, ErrEmptyTranslation)

	p = newGeminiProvider(&fakeGemini{err: errors.New("quota")}, "gemini-test", DefaultSettings())
	_, err = p.Translate(context.Background(), Request{Text: "Hello"})
	assert.ErrorContains(t, err, "gemini completion failed: quota")
	assert.Equal(t, ProviderTypeGemini, p.GetType())
}
