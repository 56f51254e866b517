package cache

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string](4, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("a", "uno")
	if v, ok := c.Get("a"); !ok || v != "uno" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}

	c.Set("a", "due")
	if v, _ := c.Get("a"); v != "due" {
		t.Errorf("overwrite not visible, got %q", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d, want 1", c.Size())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now the most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestCacheTTL(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}
}

func TestCacheClear(t *testing.T) {
	c := New[int](4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size after Clear = %d", c.Size())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared cache should miss")
	}

	// Still usable after a clear.
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v", v, ok)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New[int](4, time.Minute)
	c.Set("a", 1)
	c.Delete("a")
	c.Delete("never-there")

	if _, ok := c.Get("a"); ok {
		t.Error("deleted key should miss")
	}
}
