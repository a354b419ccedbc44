package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetSession is the explicit state of one password-reset flow. It lives
// in a session store under an opaque token, never in ambient globals, and
// expires on its own.
type ResetSession struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Verified bool   `json:"verified"`
}

// IResetSessionStore is the contract for reset-flow session state.
// Get returns (nil, nil) for unknown or expired tokens.
type IResetSessionStore interface {
	Put(ctx context.Context, token string, session ResetSession, ttl time.Duration) error
	Get(ctx context.Context, token string) (*ResetSession, error)
	Delete(ctx context.Context, token string) error
}

// RedisResetSessionStore keeps sessions in Redis with the TTL enforced by
// the server, which is the right shape for the multi-process web front end.
type RedisResetSessionStore struct {
	client *redis.Client
}

func NewRedisResetSessionStore(client *redis.Client) *RedisResetSessionStore {
	return &RedisResetSessionStore{client: client}
}

func resetKey(token string) string {
	return fmt.Sprintf("reset:%s", token)
}

func (s *RedisResetSessionStore) Put(ctx context.Context, token string, session ResetSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, resetKey(token), data, ttl).Err()
}

func (s *RedisResetSessionStore) Get(ctx context.Context, token string) (*ResetSession, error) {
	data, err := s.client.Get(ctx, resetKey(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session ResetSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisResetSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, resetKey(token)).Err()
}

// MemoryResetSessionStore is the single-process variant used by the shell
// front end and by tests.
type MemoryResetSessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
}

type memorySession struct {
	session   ResetSession
	expiresAt time.Time
}

func NewMemoryResetSessionStore() *MemoryResetSessionStore {
	return &MemoryResetSessionStore{sessions: make(map[string]memorySession)}
}

func (s *MemoryResetSessionStore) Put(ctx context.Context, token string, session ResetSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{session: session, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryResetSessionStore) Get(ctx context.Context, token string) (*ResetSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (s *MemoryResetSessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
