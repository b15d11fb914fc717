package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the shared backend for multi-node deployments: every node
// pointed at the same instance and prefix sees the same verdicts.
// Expiry is delegated to redis key TTLs.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

func newRedis(ctx context.Context, cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client, prefix: cfg.Redis.Prefix, ttl: cfg.TTL}, nil
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Has implements Store.
func (r *Redis) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	return n > 0, err
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// EstimatedSize implements Store. This walks the prefixed keyspace
// with SCAN; it is sized for occasional observability reads, not the
// admission path.
func (r *Redis) EstimatedSize(ctx context.Context) (int64, error) {
	var n int64
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
