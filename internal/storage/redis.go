package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/course-catalog-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "courses:snapshot:"
	redisLatestPrefix = "courses:latest:"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func (rs *RedisStore) Load(ctx context.Context, key string) (*models.Snapshot, error) {
	return rs.load(ctx, redisKeyPrefix+key)
}

// LoadLatest reads the copy kept without expiry.
func (rs *RedisStore) LoadLatest(ctx context.Context, key string) (*models.Snapshot, error) {
	return rs.load(ctx, redisLatestPrefix+key)
}

func (rs *RedisStore) load(ctx context.Context, redisKey string) (*models.Snapshot, error) {
	data, err := rs.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read snapshot from redis: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}

// Save stores the snapshot twice: under the cache key with the store's TTL (zero keeps it until
// overwritten) and under the latest key without expiry.
func (rs *RedisStore) Save(ctx context.Context, key string, snapshot *models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := rs.client.Set(ctx, redisLatestPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to redis: %w", err)
	}

	if err := rs.client.Set(ctx, redisKeyPrefix+key, data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to redis: %w", err)
	}

	return nil
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
