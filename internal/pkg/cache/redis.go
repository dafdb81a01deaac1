// Package cache wraps the redis client behind a small interface so callers
// (the search trend tracker) can be tested against an in-memory fake.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScoredMember is one member of a sorted set together with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// Cache is the subset of redis operations the server uses: a sorted-set
// leaderboard and capped per-user lists.
type Cache interface {
	ZIncrBy(ctx context.Context, key, member string, delta float64) error
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	LPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the redis instance at addr.
func NewRedisCache(addr string) Cache {
	return &redisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (r *redisCache) ZIncrBy(ctx context.Context, key, member string, delta float64) error {
	return r.client.ZIncrBy(ctx, key, delta, member).Err()
}

func (r *redisCache) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}

	members := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		members = append(members, ScoredMember{Member: member, Score: z.Score})
	}
	return members, nil
}

func (r *redisCache) LPush(ctx context.Context, key string, values ...string) error {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return r.client.LPush(ctx, key, args...).Err()
}

func (r *redisCache) LTrim(ctx context.Context, key string, start, stop int64) error {
	return r.client.LTrim(ctx, key, start, stop).Err()
}

func (r *redisCache) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return r.client.LRange(ctx, key, start, stop).Result()
}

func (r *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *redisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}
