package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level         string `json:"level"`          // debug, info, warn, error
	LogRequests   bool   `json:"log_requests"`   // Log one line per HTTP request
	LogRedactions bool   `json:"log_redactions"` // Write redacted texts to the audit log store
}

// DatabaseConfig holds database configuration for the redaction audit log
type DatabaseConfig struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Database     string `json:"database"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	SSLMode      string `json:"ssl_mode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
	MaxLifetime  int    `json:"max_lifetime"`  // seconds
	CleanupHours int    `json:"cleanup_hours"` // Hours after which audit rows are removed
}

// RedisConfig holds Redis configuration for sessions and the audio cache
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// ProviderConfig holds settings for an HTTP chat-completion provider
type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
}

// GeminiConfig holds Google Gemini settings
type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// BedrockConfig holds AWS Bedrock settings
type BedrockConfig struct {
	Region  string `json:"region"`
	ModelID string `json:"model_id"`
}

// TranslationConfig selects and configures the translation provider
type TranslationConfig struct {
	Provider      string         `json:"provider"`
	MaxTextLength int            `json:"max_text_length"`
	MaxTokens     int            `json:"max_tokens"`
	Temperature   float32        `json:"temperature"`
	Timeout       time.Duration  `json:"timeout"`
	RateLimit     float64        `json:"rate_limit"` // Outbound provider calls per second, 0 disables
	RateBurst     int            `json:"rate_burst"`
	OpenAI        ProviderConfig `json:"openai"`
	Anthropic     ProviderConfig `json:"anthropic"`
	Mistral       ProviderConfig `json:"mistral"`
	Gemini        GeminiConfig   `json:"gemini"`
	Bedrock       BedrockConfig  `json:"bedrock"`
}

// SpeechConfig holds text-to-speech settings
type SpeechConfig struct {
	CredentialsJSON string        `json:"credentials_json"`
	CredentialsFile string        `json:"credentials_file"`
	DefaultLanguage string        `json:"default_language"`
	VoiceGender     string        `json:"voice_gender"`
	AudioEncoding   string        `json:"audio_encoding"`
	CacheTTL        time.Duration `json:"cache_ttl"`
}

// SessionConfig holds ephemeral session settings
type SessionConfig struct {
	IdleTimeout time.Duration `json:"idle_timeout"`
}

// RateLimitConfig holds per-client rate limiting settings
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled"`
	RequestsPerMinute int           `json:"requests_per_minute"`
	Window            time.Duration `json:"window"`
	TrustProxyHeaders bool          `json:"trust_proxy_headers"` // Take the client address from X-Real-Ip / X-Forwarded-For
}

// SentryConfig holds error reporting settings
type SentryConfig struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
}

// Config holds all configuration for the translation service
type Config struct {
	ServerPort         string            `json:"server_port"`
	DetectorName       string            `json:"detector_name"`
	CORSAllowedOrigins []string          `json:"cors_allowed_origins"`
	Translation        TranslationConfig `json:"translation"`
	Speech             SpeechConfig      `json:"speech"`
	Session            SessionConfig     `json:"session"`
	RateLimit          RateLimitConfig   `json:"rate_limit"`
	Database           DatabaseConfig    `json:"database"`
	Redis              RedisConfig       `json:"redis"`
	Logging            LoggingConfig     `json:"logging"`
	Sentry             SentryConfig      `json:"sentry"`
}

// Supported translation provider names
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMistral   = "mistral"
	ProviderGemini    = "gemini"
	ProviderBedrock   = "bedrock"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ServerPort:         ":8080",
		DetectorName:       "rule_detector",
		CORSAllowedOrigins: []string{"*"},
		Translation: TranslationConfig{
			Provider:      ProviderOpenAI,
			MaxTextLength: 1000,
			MaxTokens:     1000,
			Temperature:   0.1,
			Timeout:       30 * time.Second,
			RateLimit:     5,
			RateBurst:     5,
			OpenAI: ProviderConfig{
				BaseURL: "https://api.openai.com",
				Model:   "gpt-4",
			},
			Anthropic: ProviderConfig{
				BaseURL: "https://api.anthropic.com",
				Model:   "claude-3-5-sonnet-latest",
			},
			Mistral: ProviderConfig{
				BaseURL: "https://api.mistral.ai",
				Model:   "mistral-large-latest",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
			Bedrock: BedrockConfig{
				Region:  "us-east-1",
				ModelID: "anthropic.claude-3-haiku-20240307-v1:0",
			},
		},
		Speech: SpeechConfig{
			DefaultLanguage: "en-US",
			VoiceGender:     "NEUTRAL",
			AudioEncoding:   "MP3",
			CacheTTL:        time.Hour,
		},
		Session: SessionConfig{
			IdleTimeout: 30 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			Window:            time.Minute,
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "medvoice",
			Username:     "postgres",
			Password:     "",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
			MaxLifetime:  300,
			CleanupHours: 24,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Logging: LoggingConfig{
			Level:         "info",
			LogRequests:   true,
			LogRedactions: true,
		},
	}
}

// Validate checks the configuration and returns the first problem found
func (c *Config) Validate() error {
	if err := validatePort(c.ServerPort, "ServerPort"); err != nil {
		return err
	}

	switch c.Translation.Provider {
	case ProviderOpenAI:
		if err := validateBaseURL(c.Translation.OpenAI.BaseURL, "Translation.OpenAI.BaseURL"); err != nil {
			return err
		}
	case ProviderAnthropic:
		if err := validateBaseURL(c.Translation.Anthropic.BaseURL, "Translation.Anthropic.BaseURL"); err != nil {
			return err
		}
	case ProviderMistral:
		if err := validateBaseURL(c.Translation.Mistral.BaseURL, "Translation.Mistral.BaseURL"); err != nil {
			return err
		}
	case ProviderGemini, ProviderBedrock:
	default:
		return fmt.Errorf("Translation.Provider: unknown provider '%s'", c.Translation.Provider)
	}

	if c.Translation.MaxTextLength <= 0 {
		return fmt.Errorf("Translation.MaxTextLength: must be positive (current value: %d)", c.Translation.MaxTextLength)
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("Session.IdleTimeout: must be positive (current value: %s)", c.Session.IdleTimeout)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("RateLimit.RequestsPerMinute: must be positive (current value: %d)", c.RateLimit.RequestsPerMinute)
	}
	return nil
}

// validatePort checks that port has the form ':PORT' with PORT in 1-65535
func validatePort(port, fieldName string) error {
	if port == "" {
		return fmt.Errorf("%s: port cannot be empty", fieldName)
	}
	if !strings.HasPrefix(port, ":") {
		return fmt.Errorf("%s: port must be in format ':PORT' where PORT is numeric (current value: %s)", fieldName, port)
	}
	n, err := strconv.Atoi(port[1:])
	if err != nil {
		return fmt.Errorf("%s: port must be in format ':PORT' where PORT is numeric (current value: %s)", fieldName, port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("%s: port must be between 1 and 65535 (current value: %d)", fieldName, n)
	}
	return nil
}

// validateBaseURL checks that raw is an absolute http(s) URL
func validateBaseURL(raw, fieldName string) error {
	if raw == "" {
		return fmt.Errorf("%s: base URL cannot be empty", fieldName)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s: base URL format is invalid (current value: %s)", fieldName, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: base URL must use http or https (current value: %s)", fieldName, raw)
	}
	return nil
}

// DatabaseMaxLifetime returns the connection lifetime as a duration
func (dc DatabaseConfig) DatabaseMaxLifetime() time.Duration {
	return time.Duration(dc.MaxLifetime) * time.Second
}
