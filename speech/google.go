package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

// GoogleSynthesizer calls the Google Cloud Text-to-Speech REST API
type GoogleSynthesizer struct {
	service       *texttospeech.Service
	voiceGender   string
	audioEncoding string
}

// NewGoogleSynthesizer authenticates with a service-account credentials JSON
func NewGoogleSynthesizer(ctx context.Context, credentialsJSON []byte, voiceGender, audioEncoding string) (*GoogleSynthesizer, error) {
	return NewGoogleSynthesizerWithOptions(ctx, voiceGender, audioEncoding, option.WithCredentialsJSON(credentialsJSON))
}

// NewGoogleSynthesizerWithOptions creates a synthesizer with explicit client options
func NewGoogleSynthesizerWithOptions(ctx context.Context, voiceGender, audioEncoding string, opts ...option.ClientOption) (*GoogleSynthesizer, error) {
	service, err := texttospeech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	if voiceGender == "" {
		voiceGender = "NEUTRAL"
	}
	if audioEncoding == "" {
		audioEncoding = "MP3"
	}
	return &GoogleSynthesizer{
		service:       service,
		voiceGender:   voiceGender,
		audioEncoding: audioEncoding,
	}, nil
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, languageCode string) ([]byte, error) {
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: languageCode,
			SsmlGender:   g.voiceGender,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: g.audioEncoding,
		},
	}

	resp, err := g.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("text-to-speech request failed: %w", err)
	}
	if resp.AudioContent == "" {
		return nil, errors.New("text-to-speech returned no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %w", err)
	}
	return audio, nil
}
