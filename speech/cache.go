package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/metrics"
)

const cacheKeyPrefix = "tts:"

// CachedSynthesizer stores synthesized audio in Redis. Cache errors are
// logged and the call falls through to the wrapped synthesizer.
type CachedSynthesizer struct {
	next    Synthesizer
	redis   *redis.Client
	ttl     time.Duration
	metrics *metrics.SpeechMetrics
	logger  *logging.Logger
}

func NewCachedSynthesizer(next Synthesizer, client *redis.Client, ttl time.Duration, m *metrics.SpeechMetrics, logger *logging.Logger) *CachedSynthesizer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedSynthesizer{next: next, redis: client, ttl: ttl, metrics: m, logger: logger}
}

// cacheKey hashes the input so no text is stored in key names
func cacheKey(text, languageCode string) string {
	sum := sha256.Sum256([]byte(languageCode + "|" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedSynthesizer) Synthesize(ctx context.Context, text string, languageCode string) ([]byte, error) {
	key := cacheKey(text, languageCode)

	audio, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.metrics.ObserveCache(true)
		return audio, nil
	case errors.Is(err, redis.Nil):
		c.metrics.ObserveCache(false)
	default:
		c.metrics.ObserveCache(false)
		c.logger.Warn("audio cache lookup failed", "error", err)
	}

	audio, err = c.next.Synthesize(ctx, text, languageCode)
	if err != nil {
		return nil, err
	}

	if err := c.redis.Set(ctx, key, audio, c.ttl).Err(); err != nil {
		c.logger.Warn("audio cache store failed", "error", err)
	}
	return audio, nil
}
