package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for a local Redis instance.
type RedisConfig struct {
	Addr      string // host:port, normally 127.0.0.1:6379
	Password  string
	DB        int
	Namespace string // key prefix, e.g. the device or user name
}

// RedisStore implements Store on a Redis key. The record never expires.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisClient connects and pings the server.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "posture"
	}
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("%s:calibration", s.namespace)
}

// Load reads the baseline record.
func (s *RedisStore) Load(ctx context.Context) (*Baseline, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}

	b, err := decodeRecord(data)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return b, nil
}

// Save overwrites the baseline record.
func (s *RedisStore) Save(ctx context.Context, b Baseline) error {
	data, err := json.Marshal(newRecord(&b))
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if err := s.client.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// Clear deletes the record. Deleting a missing key is not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
