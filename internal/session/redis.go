package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aeroscout/fareengine/internal/models"
)

const redisKeyPrefix = "search_session:"

const DefaultTTL = 30 * time.Minute

// RedisStore persists sessions in Redis with a TTL. Every write refreshes the
// TTL, so a session being polled or updated stays alive.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

func (s *RedisStore) Set(ctx context.Context, session *models.SearchSession) error {
	copied := *session
	copied.UpdatedAt = s.now()
	data, err := json.Marshal(&copied)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SearchID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+session.SearchID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", session.SearchID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, searchID string) (*models.SearchSession, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+searchID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", searchID, err)
	}

	var session models.SearchSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", searchID, err)
	}
	return &session, nil
}

func (s *RedisStore) Update(ctx context.Context, searchID string, fn func(*models.SearchSession)) error {
	session, err := s.Get(ctx, searchID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}
	fn(session)
	return s.Set(ctx, session)
}

func (s *RedisStore) Delete(ctx context.Context, searchID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+searchID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", searchID, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, searchID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+searchID).Result()
	if err != nil {
		return false, fmt.Errorf("check session %s: %w", searchID, err)
	}
	return n > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(redisKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}
