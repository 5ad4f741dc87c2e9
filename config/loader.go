package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const TRUE = "true"

// LoadFromFile overlays the JSON config file at path onto cfg.
// Fields missing from the file keep their current values.
func LoadFromFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("config path is not configured")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", path)
	}

	// #nosec G304 - Config file path is controlled by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ServiceAccount is the subset of a Google service account key we check
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

// ReadServiceAccountCredentials returns the credentials JSON configured for
// speech synthesis, reading CredentialsFile when no inline JSON is set.
// Escaped "\n" sequences inside private_key are turned into real newlines.
func ReadServiceAccountCredentials(sc SpeechConfig) ([]byte, error) {
	raw := []byte(sc.CredentialsJSON)
	if len(raw) == 0 {
		if sc.CredentialsFile == "" {
			return nil, fmt.Errorf("speech credentials are not configured")
		}
		data, err := os.ReadFile(sc.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read speech credentials file: %w", err)
		}
		raw = data
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse speech credentials: %w", err)
	}

	if key, ok := fields["private_key"].(string); ok {
		fields["private_key"] = strings.ReplaceAll(key, `\n`, "\n")
	}

	var account ServiceAccount
	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode speech credentials: %w", err)
	}
	if err := json.Unmarshal(normalized, &account); err != nil {
		return nil, fmt.Errorf("failed to parse speech credentials: %w", err)
	}
	if account.ClientEmail == "" || account.PrivateKey == "" {
		return nil, fmt.Errorf("speech credentials are missing client_email or private_key")
	}
	return normalized, nil
}

// LoadFromEnv overrides configuration with environment variables
func LoadFromEnv(cfg *Config) {
	loadDatabaseConfig(cfg)
	loadRedisConfig(cfg)
	loadApplicationConfig(cfg)
	loadTranslationConfig(cfg)
	loadSpeechConfig(cfg)
	loadRateLimitConfig(cfg)
	loadLoggingConfig(cfg)
}

// loadDatabaseConfig loads database configuration from environment variables
func loadDatabaseConfig(cfg *Config) {
	if dbEnabled := os.Getenv("DB_ENABLED"); dbEnabled != "" {
		cfg.Database.Enabled = dbEnabled == TRUE
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.Username = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}

	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if cleanupHours := os.Getenv("DB_CLEANUP_HOURS"); cleanupHours != "" {
		if hours, err := strconv.Atoi(cleanupHours); err == nil {
			cfg.Database.CleanupHours = hours
		}
	}
}

// loadRedisConfig loads Redis configuration from environment variables
func loadRedisConfig(cfg *Config) {
	if enabled := os.Getenv("REDIS_ENABLED"); enabled != "" {
		cfg.Redis.Enabled = enabled == TRUE
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}
}

// loadApplicationConfig loads server-level settings from environment variables
func loadApplicationConfig(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.ServerPort = port
	}

	if detectorName := os.Getenv("DETECTOR_NAME"); detectorName != "" {
		cfg.DetectorName = detectorName
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitList(origins)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.Sentry.DSN = dsn
	}
	if env := os.Getenv("SENTRY_ENVIRONMENT"); env != "" {
		cfg.Sentry.Environment = env
	}

	if idle := os.Getenv("SESSION_IDLE_TIMEOUT"); idle != "" {
		if d, err := time.ParseDuration(idle); err == nil {
			cfg.Session.IdleTimeout = d
		}
	}
}

// loadTranslationConfig loads translation provider settings from environment variables
func loadTranslationConfig(cfg *Config) {
	tc := &cfg.Translation

	if provider := os.Getenv("TRANSLATION_PROVIDER"); provider != "" {
		tc.Provider = strings.ToLower(provider)
	}
	if maxLen := os.Getenv("MAX_TEXT_LENGTH"); maxLen != "" {
		if n, err := strconv.Atoi(maxLen); err == nil {
			tc.MaxTextLength = n
		}
	}

	loadProviderEnv(&tc.OpenAI, "OPENAI")
	loadProviderEnv(&tc.Anthropic, "ANTHROPIC")
	loadProviderEnv(&tc.Mistral, "MISTRAL")

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		tc.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		tc.Gemini.Model = model
	}

	if region := os.Getenv("AWS_REGION"); region != "" {
		tc.Bedrock.Region = region
	}
	if modelID := os.Getenv("BEDROCK_MODEL_ID"); modelID != "" {
		tc.Bedrock.ModelID = modelID
	}
}

func loadProviderEnv(pc *ProviderConfig, prefix string) {
	if baseURL := os.Getenv(prefix + "_BASE_URL"); baseURL != "" {
		pc.BaseURL = baseURL
	}
	if model := os.Getenv(prefix + "_MODEL"); model != "" {
		pc.Model = model
	}
	if apiKey := os.Getenv(prefix + "_API_KEY"); apiKey != "" {
		pc.APIKey = apiKey
		log.Printf("Loaded %s_API_KEY from environment (length: %d)", prefix, len(apiKey))
	}
}

// loadSpeechConfig loads text-to-speech settings from environment variables
func loadSpeechConfig(cfg *Config) {
	if creds := os.Getenv("GOOGLE_SERVICE_ACCOUNT_CREDENTIALS"); creds != "" {
		cfg.Speech.CredentialsJSON = creds
	}
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		cfg.Speech.CredentialsFile = path
	}
	if ttl := os.Getenv("TTS_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Speech.CacheTTL = d
		}
	}
}

// loadRateLimitConfig loads rate limiting settings from environment variables
func loadRateLimitConfig(cfg *Config) {
	if enabled := os.Getenv("RATE_LIMIT_ENABLED"); enabled != "" {
		cfg.RateLimit.Enabled = enabled == TRUE
	}
	if rpm := os.Getenv("RATE_LIMIT_PER_MINUTE"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			cfg.RateLimit.RequestsPerMinute = n
		}
	}
	if trust := os.Getenv("RATE_LIMIT_TRUST_PROXY"); trust != "" {
		cfg.RateLimit.TrustProxyHeaders = trust == TRUE
	}
}

// loadLoggingConfig loads logging configuration from environment variables
func loadLoggingConfig(cfg *Config) {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if logRequests := os.Getenv("LOG_REQUESTS"); logRequests != "" {
		cfg.Logging.LogRequests = logRequests == TRUE
	}

	if logRedactions := os.Getenv("LOG_REDACTIONS"); logRedactions != "" {
		cfg.Logging.LogRedactions = logRedactions == TRUE
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
