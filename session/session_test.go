package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"billed-backend/models"

	"github.com/google/uuid"
)

func TestMemoryStoreSetGetRemove(t *testing.T) {
	store := newMemoryStore(t, 0)
	ctx := context.Background()

	if _, err := store.GetItem(ctx, "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if err := store.SetItem(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetItem error: %v", err)
	}
	if err := store.SetItem(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetItem overwrite error: %v", err)
	}
	got, err := store.GetItem(ctx, "k")
	if err != nil || got != "v2" {
		t.Fatalf("GetItem: want v2 got %q err=%v", got, err)
	}
	if err := store.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("RemoveItem error: %v", err)
	}
	if _, err := store.GetItem(ctx, "k"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected item removed, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := newMemoryStore(t, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.SetItem(ctx, "a", "1"); err != nil {
		t.Fatalf("SetItem error: %v", err)
	}
	if _, err := store.GetItem(ctx, "a"); err != nil {
		t.Fatalf("expected live item, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.GetItem(ctx, "a"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected expired item to be hidden, got %v", err)
	}
	if err := store.SetItem(ctx, "b", "2"); err != nil {
		t.Fatalf("SetItem error: %v", err)
	}

	n, err := store.DeleteExpired()
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired item, got %d", n)
	}
	if _, err := store.GetItem(ctx, "b"); err != nil {
		t.Fatalf("fresh item should survive cleanup: %v", err)
	}
}

func TestProviderCurrentUser(t *testing.T) {
	store := newMemoryStore(t, 0)
	ctx := context.Background()

	provider := NewProvider(store, "")
	if _, ok := provider.CurrentUser(ctx); ok {
		t.Fatalf("expected no user in empty store")
	}

	if err := store.SetItem(ctx, UserKey, `{"type":"Employee"}`); err != nil {
		t.Fatalf("SetItem error: %v", err)
	}
	if _, ok := provider.CurrentUser(ctx); ok {
		t.Fatalf("expected record without email to be absent")
	}

	if err := store.SetItem(ctx, UserKey, `{not json`); err != nil {
		t.Fatalf("SetItem error: %v", err)
	}
	if _, ok := provider.CurrentUser(ctx); ok {
		t.Fatalf("expected malformed record to be absent")
	}

	if err := Save(ctx, store, "", models.Session{Email: "a@a", Type: models.UserTypeEmployee}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	user, ok := provider.CurrentUser(ctx)
	if !ok || user.Email != "a@a" {
		t.Fatalf("expected a@a, got %+v ok=%v", user, ok)
	}
}

func TestStartNamespacesSessions(t *testing.T) {
	store := newMemoryStore(t, 0)
	ctx := context.Background()

	id1, err := Start(ctx, store, models.Session{Email: "one@test.tld"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	id2, err := Start(ctx, store, models.Session{Email: "two@test.tld"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	u1, ok := NewProvider(store, id1).CurrentUser(ctx)
	if !ok || u1.Email != "one@test.tld" {
		t.Fatalf("session 1 mismatch: %+v", u1)
	}
	u2, ok := NewProvider(store, id2).CurrentUser(ctx)
	if !ok || u2.Email != "two@test.tld" {
		t.Fatalf("session 2 mismatch: %+v", u2)
	}
	if _, ok := NewProvider(store, "").CurrentUser(ctx); ok {
		t.Fatalf("global key must stay empty")
	}

	if err := End(ctx, store, id1); err != nil {
		t.Fatalf("End error: %v", err)
	}
	if _, ok := NewProvider(store, id1).CurrentUser(ctx); ok {
		t.Fatalf("expected session 1 ended")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	store := NewRedisStore(client, "billed-test:"+uuid.NewString()+":", time.Minute)
	ctx := context.Background()

	id, err := Start(ctx, store, models.Session{Email: "redis@test.tld"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	user, ok := NewProvider(store, id).CurrentUser(ctx)
	if !ok || user.Email != "redis@test.tld" {
		t.Fatalf("redis session mismatch: %+v", user)
	}
	if err := End(ctx, store, id); err != nil {
		t.Fatalf("End error: %v", err)
	}
	if _, err := store.GetItem(ctx, id+":"+UserKey); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound after End, got %v", err)
	}
}

func newMemoryStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(ttl, nil)
	if err != nil {
		t.Fatalf("NewMemoryStore error: %v", err)
	}
	return store
}
