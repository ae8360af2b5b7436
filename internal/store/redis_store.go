package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "cybersafe:progress:"

// RedisStore is the key-value fallback backend.
type RedisStore struct {
	Client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.Client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.Client.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) Probe(ctx context.Context) bool {
	key := redisKeyPrefix + fmt.Sprintf("%s%d", probeKeyPrefix, time.Now().UnixNano())
	if err := s.Client.Set(ctx, key, []byte(`{}`), time.Minute).Err(); err != nil {
		return false
	}
	if err := s.Client.Del(ctx, key).Err(); err != nil {
		return false
	}
	return true
}
