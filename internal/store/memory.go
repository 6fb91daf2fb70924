package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used for single-node deployments and
// tests. It honors the same atomicity contract as RedisStore, but only within
// one process.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

// expired reports whether the item has passed its TTL. Expiry is lazy: items
// are dropped the next time the key is touched.
func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

func (s *MemoryStore) CreateOrGet(_ context.Context, key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.items[key]; ok && !it.expired(time.Now()) {
		return it.value, nil
	}
	s.items[key] = memoryItem{value: value}
	return value, nil
}

func (s *MemoryStore) GetDelete(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.items, key)
	if it.expired(time.Now()) {
		return "", ErrNotFound
	}
	return it.value, nil
}

func (s *MemoryStore) SetTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok || it.expired(time.Now()) {
		return "", ErrNotFound
	}
	return it.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{value: value}
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
