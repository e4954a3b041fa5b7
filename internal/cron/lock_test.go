package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/pintuan-backend/pkg/redis"
)

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeRedis) ReportKey(job string) string {
	return "pt:report:" + job
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeRedis()
	ctx := context.Background()
	lockA, err := NewRedisLock(store, "pt:lock:group-closing", 0)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	lockB, _ := NewRedisLock(store, "pt:lock:group-closing", time.Minute)

	if ok, err := lockA.Acquire(ctx); err != nil || !ok {
		t.Fatalf("expected lock A to acquire, ok=%v err=%v", ok, err)
	}
	if store.ttls["pt:lock:group-closing"] != defaultLockTTL {
		t.Fatalf("expected default ttl, got %s", store.ttls["pt:lock:group-closing"])
	}
	if ok, _ := lockA.Acquire(ctx); ok {
		t.Fatal("re-acquiring a held lock must fail")
	}
	if ok, _ := lockB.Acquire(ctx); ok {
		t.Fatal("second instance must not acquire a held lock")
	}
	if err := lockB.Release(ctx); err != nil {
		t.Fatalf("release by non-owner should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, "pt:lock:group-closing"); err != nil {
		t.Fatal("non-owner release must not delete the key")
	}

	if err := lockA.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := lockB.Acquire(ctx); !ok {
		t.Fatal("lock should be free after owner release")
	}
}

func TestRedisLockReleaseKeepsForeignOwner(t *testing.T) {
	store := newFakeRedis()
	ctx := context.Background()
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	// TTL expired and another instance took over.
	store.data["k"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.data["k"] != "someone-else" {
		t.Fatal("release must not delete another owner's lock")
	}

	delete(store.data, "k")
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
	delete(store.data, "k")
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release of expired key should succeed: %v", err)
	}
}

func TestRedisLockErrors(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", time.Minute); err == nil {
		t.Fatal("expected nil client error")
	}
	if _, err := NewRedisLock(newFakeRedis(), "", time.Minute); err == nil {
		t.Fatal("expected empty key error")
	}
	store := newFakeRedis()
	store.setErr = errors.New("timeout")
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if _, err := lock.Acquire(context.Background()); err == nil {
		t.Fatal("expected setnx error")
	}
}

func TestLocalLock(t *testing.T) {
	lock := NewLocalLock()
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	if ok, _ := lock.Acquire(ctx); ok {
		t.Fatal("expected second acquire to fail")
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
}

func TestRedisLockOwnerCarriesInstanceID(t *testing.T) {
	t.Setenv("PINTUAN_INSTANCE_ID", "closer-3")
	store := newFakeRedis()
	lock, _ := NewRedisLock(store, "k", time.Minute)
	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("expected acquire")
	}
	if owner := store.data["k"]; !strings.HasPrefix(owner, "closer-3:") {
		t.Fatalf("expected owner prefixed with instance id, got %q", owner)
	}
}
