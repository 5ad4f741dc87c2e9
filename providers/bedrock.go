package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const ProviderTypeBedrock ProviderType = "bedrock"

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockProvider struct {
	api      bedrockConverseAPI
	modelID  string
	settings Settings
}

// NewBedrockProviderFromConfig loads AWS credentials from the environment and
// creates a Bedrock runtime client for region
func NewBedrockProviderFromConfig(ctx context.Context, region string, modelID string, settings Settings) (*BedrockProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewBedrockProvider(bedrockruntime.NewFromConfig(awsCfg), modelID, settings), nil
}

func NewBedrockProvider(api bedrockConverseAPI, modelID string, settings Settings) *BedrockProvider {
	return &BedrockProvider{api: api, modelID: modelID, settings: settings}
}

func (p *BedrockProvider) GetName() string {
	return "Bedrock"
}

func (p *BedrockProvider) GetType() ProviderType {
	return ProviderTypeBedrock
}

func (p *BedrockProvider) Translate(ctx context.Context, req Request) (string, error) {
	inference := &brtypes.InferenceConfiguration{
		Temperature: aws.Float32(p.settings.Temperature),
	}
	if p.settings.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(p.settings.MaxTokens))
	}

	out, err := p.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.modelID),
		System: []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: SystemPrompt(req.SourceLanguage, req.TargetLanguage)},
		},
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: req.Text},
				},
			},
		},
		InferenceConfig: inference,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock converse failed: %w", err)
	}

	text, err := bedrockExtractOutputText(out)
	if err != nil {
		return "", err
	}
	return text, nil
}

func bedrockExtractOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("bedrock response did not include a message output")
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", ErrEmptyTranslation
	}
	return text, nil
}

func (p *BedrockProvider) ValidateConfig() error {
	if p.api == nil {
		return fmt.Errorf("bedrock client is required")
	}
	if strings.TrimSpace(p.modelID) == "" {
		return fmt.Errorf("bedrock model id is required")
	}
	return nil
}
