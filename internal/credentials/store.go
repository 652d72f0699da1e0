package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "provider_session:"

// RedisStore keeps credential records in Redis so worker restarts and sibling
// processes reuse the same provider session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, provider string) (*Credential, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+provider).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis credential load: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("redis credential decode: %w", err)
	}
	return &cred, nil
}

func (s *RedisStore) Save(ctx context.Context, provider string, cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("redis credential encode: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+provider, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis credential save: %w", err)
	}
	return nil
}

// FileStore persists credential records as JSON files under a directory. Used
// when Redis is not configured.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(provider string) string {
	return filepath.Join(s.dir, provider+"_session.json")
}

func (s *FileStore) Load(_ context.Context, provider string) (*Credential, error) {
	data, err := os.ReadFile(s.path(provider))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file credential load: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("file credential decode: %w", err)
	}
	return &cred, nil
}

func (s *FileStore) Save(_ context.Context, provider string, cred *Credential) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("file credential save: %w", err)
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("file credential encode: %w", err)
	}
	tmp := s.path(provider) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("file credential save: %w", err)
	}
	if err := os.Rename(tmp, s.path(provider)); err != nil {
		return fmt.Errorf("file credential save: %w", err)
	}
	return nil
}
