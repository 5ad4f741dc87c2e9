package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// maxUpdateRetries bounds optimistic-lock retries on concurrent writes
const maxUpdateRetries = 5

// RedisStore keeps sessions as JSON values whose TTL is the inactivity timeout
type RedisStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	idleTimeout time.Duration
	now         func() time.Time
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, idleTimeout time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if tracer == nil {
		tracer = otel.Tracer("medvoice.session")
	}
	return &RedisStore{
		redis:       client,
		tracer:      tracer,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisStore) Create(ctx context.Context, sourceLanguage, targetLanguage string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	sess := newSession(sourceLanguage, targetLanguage, s.now().UTC())
	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.idleTimeout).Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to persist session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load session: %w", err)
	}

	if err := s.redis.Expire(ctx, sessionKey(id), s.idleTimeout).Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to refresh session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) UpdateLanguages(ctx context.Context, id string, update LanguageUpdate) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.update_languages")
	defer span.End()

	sess, err := s.update(ctx, id, func(sess *Session, now time.Time) {
		sess.applyLanguages(update, now)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
	}
	return sess, err
}

func (s *RedisStore) AppendEntry(ctx context.Context, id string, entry Entry) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.append_entry")
	defer span.End()

	sess, err := s.update(ctx, id, func(sess *Session, now time.Time) {
		sess.appendEntry(entry, now)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
	}
	return sess, err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	removed, err := s.redis.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete session: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// update applies mutate under WATCH so concurrent writers do not lose changes
func (s *RedisStore) update(ctx context.Context, id string, mutate func(*Session, time.Time)) (*Session, error) {
	key := sessionKey(id)
	var result *Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("session: failed to load session: %w", err)
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("session: failed to decode session: %w", err)
		}
		mutate(&sess, s.now().UTC())

		updated, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("session: failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.idleTimeout)
			return nil
		})
		if err != nil {
			return err
		}
		result = &sess
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("session: too many concurrent updates to %s", id)
}
