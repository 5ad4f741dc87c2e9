package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/hannes/medvoice-private/config"
	"github.com/hannes/medvoice-private/errreport"
	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/metrics"
	"github.com/hannes/medvoice-private/pii"
	"github.com/hannes/medvoice-private/providers"
	"github.com/hannes/medvoice-private/ratelimit"
	"github.com/hannes/medvoice-private/server"
	"github.com/hannes/medvoice-private/session"
	"github.com/hannes/medvoice-private/speech"
	"github.com/hannes/medvoice-private/translation"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file from current directory")
	}

	// Load configuration
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "Path to JSON config file")
	flag.Parse()

	if *configPath != "" {
		if err := config.LoadFromFile(*configPath, cfg); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}

	// Override configuration with environment variables
	config.LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(cfg.Logging.Level)

	flush, err := errreport.Init(cfg.Sentry, version)
	if err != nil {
		logger.Warn("error reporting disabled", "error", err)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	detector, err := pii.NewDetector(cfg.DetectorName)
	if err != nil {
		return err
	}

	loggingDB, err := newLoggingDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if loggingDB != nil && cfg.Database.CleanupHours > 0 {
		go cleanupLogs(ctx, loggingDB, time.Duration(cfg.Database.CleanupHours)*time.Hour, logger)
	}

	masker := pii.NewMaskingService(detector, loggingDB, metrics.NewRedactionMetrics(reg), logger)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis ping failed", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	var sessions session.Store
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient, cfg.Session.IdleTimeout, otel.Tracer("medvoice.session"))
	} else {
		sessions = session.NewMemoryStore(cfg.Session.IdleTimeout)
	}

	// A missing or broken provider leaves translation reporting "not configured".
	provider, err := providers.NewProvider(ctx, cfg.Translation)
	if err != nil {
		logger.Warn("translation provider not configured", "provider", cfg.Translation.Provider, "error", err)
		provider = nil
	} else {
		logger.Info("translation provider ready", "provider", provider.GetName())
		if closer, ok := provider.(io.Closer); ok {
			defer closer.Close()
		}
	}

	translator := translation.NewService(translation.Options{
		Provider:      provider,
		Masker:        masker,
		Sessions:      sessions,
		Throttle:      ratelimit.NewProviderThrottle(cfg.Translation.RateLimit, cfg.Translation.RateBurst),
		Metrics:       metrics.NewTranslationMetrics(reg),
		Tracer:        otel.Tracer("medvoice.translation"),
		Logger:        logger,
		MaxTextLength: cfg.Translation.MaxTextLength,
	})

	speechMetrics := metrics.NewSpeechMetrics(reg)
	synth := newSynthesizer(ctx, cfg, redisClient, speechMetrics, logger)
	speechService := speech.NewService(synth, masker, speechMetrics, logger, cfg.Speech.DefaultLanguage)

	var limiter *ratelimit.WindowLimiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewWindowLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Window)
	}

	srv, err := server.NewServer(cfg, server.Deps{
		Masker:     masker,
		Translator: translator,
		Speech:     speechService,
		Sessions:   sessions,
		Limiter:    limiter,
		Gatherer:   reg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("failed to close server resources", "error", err)
		}
	}()

	return srv.Start(ctx)
}

// newLoggingDB returns the audit store: PostgreSQL when enabled, an in-memory
// store when redaction logging is on, otherwise nil.
func newLoggingDB(ctx context.Context, cfg *config.Config, logger *logging.Logger) (pii.LoggingDB, error) {
	if cfg.Database.Enabled {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := pii.NewPostgresLoggingDB(connectCtx, pii.DatabaseConfig{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Database:     cfg.Database.Database,
			Username:     cfg.Database.Username,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.DatabaseMaxLifetime(),
		})
		if err != nil {
			return nil, err
		}
		logger.Info("audit log store ready", "backend", "postgres", "host", cfg.Database.Host)
		return db, nil
	}
	if cfg.Logging.LogRedactions {
		logger.Info("audit log store ready", "backend", "memory")
		return pii.NewInMemoryLoggingDB(pii.DefaultMaxLogEntries), nil
	}
	return nil, nil
}

// cleanupLogs removes audit rows older than retention once an hour until ctx ends
func cleanupLogs(ctx context.Context, db pii.LoggingDB, retention time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := db.CleanupOldLogs(ctx, retention)
			if err != nil {
				logger.Warn("audit log cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("audit log cleanup", "removed", removed)
			}
		}
	}
}

// newSynthesizer returns nil when no service account is configured
func newSynthesizer(ctx context.Context, cfg *config.Config, redisClient *redis.Client, m *metrics.SpeechMetrics, logger *logging.Logger) speech.Synthesizer {
	creds, err := config.ReadServiceAccountCredentials(cfg.Speech)
	if err != nil {
		logger.Warn("text-to-speech not configured", "error", err)
		return nil
	}

	google, err := speech.NewGoogleSynthesizer(ctx, creds, cfg.Speech.VoiceGender, cfg.Speech.AudioEncoding)
	if err != nil {
		logger.Warn("text-to-speech client failed", "error", err)
		return nil
	}

	if redisClient == nil {
		return google
	}
	return speech.NewCachedSynthesizer(google, redisClient, cfg.Speech.CacheTTL, m, logger)
}
