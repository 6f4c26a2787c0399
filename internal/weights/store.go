// Package weights persists the active attribute weight vector.
package weights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"phonecbr/internal/model"

	"github.com/redis/go-redis/v9"
)

const activeKey = "weights:active"

// MemoryStore keeps the vector in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	w     model.WeightVector
	saved bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored vector and whether one was saved.
func (s *MemoryStore) Load(ctx context.Context) (model.WeightVector, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w, s.saved, nil
}

// Save stores the vector.
func (s *MemoryStore) Save(ctx context.Context, w model.WeightVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
	s.saved = true
	return nil
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

// RedisStore keeps the vector as JSON in Redis so every server instance
// shares it.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "phonecbr:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Load returns the stored vector and whether one was saved.
func (s *RedisStore) Load(ctx context.Context) (model.WeightVector, bool, error) {
	var w model.WeightVector
	val, err := s.client.Get(ctx, s.prefix+activeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return w, false, nil
	}
	if err != nil {
		return w, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(val, &w); err != nil {
		return w, false, fmt.Errorf("decode weights: %w", err)
	}
	return w, true, nil
}

// Save stores the vector without expiry.
func (s *RedisStore) Save(ctx context.Context, w model.WeightVector) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+activeKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
