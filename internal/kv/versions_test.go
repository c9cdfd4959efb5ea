package kv

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestVersionStoreDefaultsToZero(t *testing.T) {
	versions := NewVersionStore(NewMemory())

	got, err := versions.Get(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected default version 0, got %d", got)
	}
}

func TestVersionStoreIncrement(t *testing.T) {
	ctx := context.Background()
	versions := NewVersionStore(NewMemory())

	next, err := versions.Increment(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if next != 1 {
		t.Fatalf("expected 1, got %d", next)
	}

	next, err = versions.Increment(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if next != 2 {
		t.Fatalf("expected 2, got %d", next)
	}

	// Counters are scoped per principal.
	other, err := versions.Get(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if other != 0 {
		t.Fatalf("expected bob untouched, got %d", other)
	}
}

func TestVersionStoreRequiresPrincipal(t *testing.T) {
	versions := NewVersionStore(NewMemory())
	if _, err := versions.Get(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty principal key")
	}
	if _, err := versions.Increment(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty principal key")
	}
}

// Concurrent revokes may coalesce but the counter never moves backwards and
// always ends at least one above where it started.
func TestVersionStoreConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	versions := NewVersionStore(NewMemory())

	before, err := versions.Get(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := versions.Increment(ctx, "alice@example.com"); err != nil {
				t.Errorf("Increment: %v", err)
			}
		}()
	}
	wg.Wait()

	after, err := versions.Get(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after < before+1 {
		t.Fatalf("expected version >= %d, got %d", before+1, after)
	}
	if after > before+2 {
		t.Fatalf("expected version <= %d, got %d", before+2, after)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryWithClock(func() time.Time { return current })
	ctx := context.Background()

	if err := store.Put(ctx, "audit:1", "{}", time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "audit:1"); !ok {
		t.Fatal("expected entry before expiry")
	}

	current = current.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "audit:1"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestVersionStoreCorruptValue(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	if err := mem.Put(ctx, "user:alice@example.com:tokenVersion", "not-a-number", 0); err != nil {
		t.Fatalf("Put: %v", err)
	}
	versions := NewVersionStore(mem)
	if _, err := versions.Get(ctx, "alice@example.com"); err == nil {
		t.Fatal("expected error for corrupt counter")
	}
}
