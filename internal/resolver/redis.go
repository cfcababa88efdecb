package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultAnswerTTL = 30 * 24 * time.Hour

// RedisCache is a Redis-backed AnswerCache shared across instances.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "answers:",
		ttl:    defaultAnswerTTL,
	}
}

func (c *RedisCache) Get(ctx context.Context, userID, question string) (string, bool, error) {
	answer, err := c.client.Get(ctx, c.prefix+questionKey(userID, question)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get answer: %w", err)
	}
	return answer, true, nil
}

func (c *RedisCache) Put(ctx context.Context, userID, question, answer string) error {
	if err := c.client.Set(ctx, c.prefix+questionKey(userID, question), answer, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer: %w", err)
	}
	return nil
}
