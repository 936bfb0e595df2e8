package idempotent

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyService 基于 SETNX 的幂等标记实现
type RedisIdempotencyService struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisIdempotencyService(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyService {
	return &RedisIdempotencyService{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisIdempotencyService) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+":"+key, 1, s.ttl).Result()
	if err != nil {
		return false, err
	}
	// SetNX 成功说明此前不存在
	return !ok, nil
}

func (s *RedisIdempotencyService) MExists(ctx context.Context, keys ...string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, errors.New("empty keys")
	}
	results := make([]bool, 0, len(keys))
	for _, key := range keys {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		results = append(results, exists)
	}
	return results, nil
}
