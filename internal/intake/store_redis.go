package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultSessionTTL = 24 * time.Hour

const sessionIndexKey = "intake:sessions"

func sessionKey(id string) string {
	return fmt.Sprintf("intake:session:%s", id)
}

// RedisStore persists sessions as JSON blobs with a TTL, plus a set index of
// active identifiers for the clinician list view.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("intake: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("previsit.internal.intake.store")
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: tracer,
	}
}

func (s *RedisStore) Load(ctx context.Context, id string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "intake.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			// Store miss starts a fresh interview.
			return Session{}, nil
		}
		span.RecordError(err)
		return Session{}, fmt.Errorf("intake: failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return Session{}, fmt.Errorf("intake: failed to decode session: %w", err)
	}
	return session, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, session Session) error {
	ctx, span := s.tracer.Start(ctx, "intake.save_session")
	defer span.End()

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to persist session: %w", err)
	}
	if err := s.redis.SAdd(ctx, sessionIndexKey, id).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to index session: %w", err)
	}
	return nil
}

func (s *RedisStore) ListActive(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "intake.list_sessions")
	defer span.End()

	ids, err := s.redis.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("intake: failed to list sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) Archive(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "intake.archive_session")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to archive session: %w", err)
	}
	if err := s.redis.SRem(ctx, sessionIndexKey, id).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("intake: failed to deindex session: %w", err)
	}
	return nil
}
