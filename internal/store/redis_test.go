package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements redisClient with canned responses so the translation
// from go-redis results to Store semantics can be tested without a server.
type fakeRedis struct {
	setArgsPrev string // previous value returned by SET NX GET, "" means the set won
	getDelVal   string
	getDelMiss  bool
	getVal      string
	getMiss     bool
	err         error

	lastKey   string
	lastValue string
	lastTTL   time.Duration
}

func (f *fakeRedis) SetArgs(ctx context.Context, key string, value interface{}, a redis.SetArgs) *redis.StatusCmd {
	f.lastKey = key
	f.lastValue = value.(string)
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	if f.setArgsPrev == "" {
		return redis.NewStatusResult("", redis.Nil)
	}
	return redis.NewStatusResult(f.setArgsPrev, nil)
}

func (f *fakeRedis) GetDel(ctx context.Context, key string) *redis.StringCmd {
	f.lastKey = key
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	if f.getDelMiss {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(f.getDelVal, nil)
}

func (f *fakeRedis) SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.lastKey = key
	f.lastValue = value.(string)
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", f.err)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.lastKey = key
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	if f.getMiss {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(f.getVal, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.lastKey = key
	f.lastValue = value.(string)
	return redis.NewStatusResult("OK", f.err)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestNewRedisStore_RequiresClient(t *testing.T) {
	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestRedisStore_CreateOrGet_WinReturnsOwnValue(t *testing.T) {
	f := &fakeRedis{}
	s, _ := NewRedisStore(f)

	got, err := s.CreateOrGet(context.Background(), "topic:acme:device-data", "t-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "t-abc" {
		t.Errorf("winner should get its own value back, got %q", got)
	}
	if f.lastKey != "topic:acme:device-data" {
		t.Errorf("unexpected key %q", f.lastKey)
	}
}

func TestRedisStore_CreateOrGet_LossReturnsExisting(t *testing.T) {
	f := &fakeRedis{setArgsPrev: "t-first"}
	s, _ := NewRedisStore(f)

	got, err := s.CreateOrGet(context.Background(), "topic:acme:device-data", "t-second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "t-first" {
		t.Errorf("loser should get existing value, got %q", got)
	}
}

func TestRedisStore_CreateOrGet_StoreDown(t *testing.T) {
	f := &fakeRedis{err: errors.New("connection refused")}
	s, _ := NewRedisStore(f)

	_, err := s.CreateOrGet(context.Background(), "k", "v")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRedisStore_GetDelete(t *testing.T) {
	f := &fakeRedis{getDelVal: "acme"}
	s, _ := NewRedisStore(f)

	got, err := s.GetDelete(context.Background(), "session:tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "acme" {
		t.Errorf("expected acme, got %q", got)
	}

	f.getDelMiss = true
	if _, err := s.GetDelete(context.Background(), "session:tok"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore_SetTTL_PassesExpiry(t *testing.T) {
	f := &fakeRedis{}
	s, _ := NewRedisStore(f)

	if err := s.SetTTL(context.Background(), "session:tok", "acme", 60*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.lastTTL != 60*time.Second {
		t.Errorf("expected 60s TTL, got %v", f.lastTTL)
	}
	if f.lastValue != "acme" {
		t.Errorf("expected value acme, got %q", f.lastValue)
	}
}

func TestRedisStore_Get_NotFound(t *testing.T) {
	f := &fakeRedis{getMiss: true}
	s, _ := NewRedisStore(f)

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore_Ping_StoreDown(t *testing.T) {
	f := &fakeRedis{err: errors.New("connection refused")}
	s, _ := NewRedisStore(f)

	if err := s.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
