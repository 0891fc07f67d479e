package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns default Redis connection settings.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisStore keeps key-value pairs in Redis. Useful when several development
// clients want to observe the same session state.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisStore(config *RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to Redis", "error", err, "addr", config.Addr)
		return nil, err
	}

	logger.Info("connected to Redis storage", "addr", config.Addr, "db", config.DB)

	return &RedisStore{
		client: client,
		logger: logger,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("storage read failed", "key", key, "error", err)
		}
		return "", false
	}

	return value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value string) bool {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		s.logger.Warn("storage write failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *RedisStore) Remove(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("storage delete failed", "key", key, "error", err)
		return false
	}

	return true
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
