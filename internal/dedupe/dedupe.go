// Package dedupe remembers relay interaction IDs so a redelivered chat
// message is executed at most once within a TTL window.
package dedupe

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coords-bot/internal/shared/redis"
)

// Store claims interaction keys. Claim reports false when the key was already
// claimed and has not expired. Release forgets a claim so a retry can run.
type Store interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// New picks the Redis store when a client is available and the in-memory one
// otherwise.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) Store {
	if client != nil {
		logger.Info("Using Redis dedupe store", "ttl", ttl)
		return NewRedisStore(client, ttl)
	}
	logger.Info("Using in-memory dedupe store", "ttl", ttl)
	return NewMemoryStore(ttl)
}

type MemoryStore struct {
	ttl  time.Duration
	now  func() time.Time
	keys map[string]time.Time
	mu   sync.Mutex
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		now:  time.Now,
		keys: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Claim(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.keys[key] = now.Add(s.ttl)
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Len returns the number of tracked keys, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Run removes expired keys every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := slog.With("component", "dedupe", "operation", "cleanup")
	logger.Debug("Starting dedupe cleanup goroutine", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.cleanupExpired(); n > 0 {
				logger.Debug("Cleaned up expired interaction keys", "expired_count", n, "remaining_count", s.Len())
			}
		}
	}
}

func (s *MemoryStore) cleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for key, expires := range s.keys {
		if !now.Before(expires) {
			delete(s.keys, key)
			expired++
		}
	}
	return expired
}

const redisKeyPrefix = "coords-bot:interaction:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, redisKey(key), time.Now().Unix(), s.ttl).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}
