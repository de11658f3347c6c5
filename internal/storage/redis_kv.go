package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/idle-shapes/game-service/pkg/metrics"
)

// RedisKV adapts a Redis client to the KV interface. Saves carry no TTL:
// an idle game is the whole point.
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.RecordKVOperation("get", "miss")
		return "", ErrNotFound
	}
	if err != nil {
		metrics.RecordKVOperation("get", "error")
		return "", errors.Wrapf(err, "failed to get key %s", key)
	}
	metrics.RecordKVOperation("get", "success")
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		metrics.RecordKVOperation("set", "error")
		return errors.Wrapf(err, "failed to set key %s", key)
	}
	metrics.RecordKVOperation("set", "success")
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		metrics.RecordKVOperation("delete", "error")
		return errors.Wrapf(err, "failed to delete key %s", key)
	}
	metrics.RecordKVOperation("delete", "success")
	return nil
}

func (r *RedisKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.RecordKVOperation("keys", "error")
		return nil, errors.Wrapf(err, "failed to scan keys for pattern %s", pattern)
	}
	metrics.RecordKVOperation("keys", "success")
	return keys, nil
}
