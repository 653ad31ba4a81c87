package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// The latest pointer lives outside the audio keyspace so no report id can
// address it.
const (
	redisAudioPrefix = "newspulse:audio:"
	redisLatestKey   = "newspulse:audio_latest"
)

func redisAudioKey(id string) string { return redisAudioPrefix + id }

// RedisArtifacts stores audio in Redis so every API instance can serve it.
type RedisArtifacts struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisArtifacts connects lazily to addr. ttl <= 0 keeps keys forever.
func NewRedisArtifacts(addr, password string, ttl time.Duration) *RedisArtifacts {
	return &RedisArtifacts{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		ttl: ttl,
	}
}

// Ping checks the connection.
func (r *RedisArtifacts) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisArtifacts) Close() error {
	return r.rdb.Close()
}

func (r *RedisArtifacts) expiry() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl
}

// Put implements ArtifactStore. The audio and the latest pointer are written
// in one transaction.
func (r *RedisArtifacts) Put(ctx context.Context, id string, audio []byte) error {
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisAudioKey(id), audio, r.expiry())
		p.Set(ctx, redisLatestKey, id, r.expiry())
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: redis put %s: %w", id, err)
	}
	return nil
}

// Get implements ArtifactStore.
func (r *RedisArtifacts) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, redisAudioKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get %s: %w", id, err)
	}
	return b, nil
}

// Latest implements ArtifactStore.
func (r *RedisArtifacts) Latest(ctx context.Context) (string, []byte, error) {
	id, err := r.rdb.Get(ctx, redisLatestKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("store: redis latest: %w", err)
	}
	audio, err := r.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, audio, nil
}
