package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](0)
	defer c.Close()

	c.Set(ctx, "forever", 1, 0)
	c.Set(ctx, "short", 2, 10*time.Millisecond)

	if v, ok := c.Get(ctx, "forever"); !ok || v != 1 {
		t.Fatalf("forever = %d, %v", v, ok)
	}
	if v, ok := c.Get(ctx, "short"); !ok || v != 2 {
		t.Fatalf("short = %d, %v", v, ok)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "short"); ok {
		t.Error("expected short to expire")
	}
	if _, ok := c.Get(ctx, "forever"); !ok {
		t.Error("expected forever to survive")
	}

	c.Delete(ctx, "forever")
	if _, ok := c.Get(ctx, "forever"); ok {
		t.Error("expected delete to remove item")
	}
}

func TestCache_JanitorEvicts(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](5 * time.Millisecond)
	defer c.Close()

	c.Set(ctx, "k", "v", time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor never evicted the expired item")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
