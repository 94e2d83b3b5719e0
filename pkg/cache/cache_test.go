package cache

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	c := New()
	calls := 0
	fetch := func() (string, error) {
		calls++
		return "quote", nil
	}

	v, hit := c.GetOrFetch("market", time.Minute, fetch)
	if hit || v != "quote" {
		t.Fatalf("first call: got (%q, %v)", v, hit)
	}

	v, hit = c.GetOrFetch("market", time.Minute, fetch)
	if !hit || v != "quote" {
		t.Fatalf("second call: got (%q, %v)", v, hit)
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}
}

func TestGetOrFetchRefetchesAfterTTL(t *testing.T) {
	c := New()
	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	calls := 0
	fetch := func() (string, error) {
		calls++
		return "fresh", nil
	}

	c.GetOrFetch("market", 5*time.Minute, fetch)
	current = current.Add(6 * time.Minute)
	_, hit := c.GetOrFetch("market", 5*time.Minute, fetch)

	if hit {
		t.Fatal("expected a miss after the TTL elapsed")
	}
	if calls != 2 {
		t.Fatalf("fetch called %d times, want 2", calls)
	}
}

func TestGetOrFetchFailureDoesNotPoisonCache(t *testing.T) {
	c := New()
	v, hit := c.GetOrFetch("market", time.Minute, func() (string, error) {
		return "", errors.New("upstream down")
	})
	if hit || v != "" {
		t.Fatalf("got (%q, %v), want empty miss", v, hit)
	}
	if c.Len() != 0 {
		t.Fatalf("failed fetch stored an entry")
	}

	// A later successful fetch populates normally.
	v, hit = c.GetOrFetch("market", time.Minute, func() (string, error) {
		return "ok", nil
	})
	if hit || v != "ok" {
		t.Fatalf("got (%q, %v)", v, hit)
	}
}

func TestGetOrFetchConcurrentLastWriteWins(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrFetch("k", time.Minute, func() (string, error) {
				return "v", nil
			})
		}()
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", c.Len())
	}
	v, hit := c.GetOrFetch("k", time.Minute, func() (string, error) { return "", nil })
	if !hit || v != "v" {
		t.Fatalf("got (%q, %v)", v, hit)
	}
}
