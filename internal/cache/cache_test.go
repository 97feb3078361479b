// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/aeropacer/internal/metrics"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c := New(t.Name(), ttl)
	t.Cleanup(c.Close)
	return c
}

func TestCacheBasicOperations(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := newTestCache(t, 100*time.Millisecond)

	c.Set("key1", "value1")
	if _, exists := c.Get("key1"); !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after lazy expiry", c.Len())
	}
}

func TestCacheSetWithTTLOverridesDefault(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.SetWithTTL("short", "v", 50*time.Millisecond)
	c.Set("long", "v")
	time.Sleep(100 * time.Millisecond)

	if _, exists := c.Get("short"); exists {
		t.Error("Expected short-lived key to expire")
	}
	if _, exists := c.Get("long"); !exists {
		t.Error("Expected default-TTL key to survive")
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("stats:user-a:week", 1)
	c.Set("stats:user-a:month", 2)
	c.Set("stats:user-b:week", 3)
	c.Set("summary:user-a", 4)

	before := testutil.ToFloat64(metrics.CacheInvalidations.WithLabelValues(t.Name()))

	if removed := c.DeletePrefix("stats:user-a"); removed != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", removed)
	}
	if _, exists := c.Get("stats:user-b:week"); !exists {
		t.Error("other user's entry should survive")
	}
	if _, exists := c.Get("summary:user-a"); !exists {
		t.Error("entry outside the prefix should survive")
	}
	if removed := c.DeletePrefix("stats:user-a"); removed != 0 {
		t.Errorf("second DeletePrefix() = %d, want 0", removed)
	}

	if after := testutil.ToFloat64(metrics.CacheInvalidations.WithLabelValues(t.Name())); after != before+1 {
		t.Errorf("invalidations delta = %v, want 1", after-before)
	}
	if size := testutil.ToFloat64(metrics.CacheSize.WithLabelValues(t.Name())); size != 2 {
		t.Errorf("cache_entries = %v, want 2", size)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Delete("key1")
	if _, exists := c.Get("key1"); exists {
		t.Error("Expected key1 to be deleted")
	}

	c.Clear()
	for _, key := range []string{"key2", "key3"} {
		if _, exists := c.Get(key); exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
	if stats := c.GetStats(); stats.Evictions != 3 || stats.TotalKeys != 0 {
		t.Errorf("stats = %+v, want 3 evictions and 0 keys", stats)
	}
}

func TestCacheStats(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key2") // miss
	c.Get("key1") // hit

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expectedHitRate := 66.66666666666667
	if hitRate < expectedHitRate-0.01 || hitRate > expectedHitRate+0.01 {
		t.Errorf("Expected hit rate around %.2f%%, got %.2f%%", expectedHitRate, hitRate)
	}

	if hits := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(t.Name())); hits != 2 {
		t.Errorf("cache_hits_total = %v, want 2", hits)
	}
}

func TestCacheHitRateZeroOperations(t *testing.T) {
	c := newTestCache(t, time.Minute)
	if rate := c.HitRate(); rate != 0 {
		t.Errorf("HitRate() = %v, want 0", rate)
	}
}

func TestCacheCleanupLoop(t *testing.T) {
	c := newWithCleanup(t.Name(), 20*time.Millisecond, 30*time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && c.Len() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after background cleanup", c.Len())
	}
	if c.GetStats().Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", c.GetStats().Evictions)
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New("close-test", time.Minute)
	c.Close()
	c.Close()

	c.Set("key", "still usable")
	if _, ok := c.Get("key"); !ok {
		t.Error("cache should remain usable after Close")
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Period string
		From   string
	}

	key1 := GenerateKey("stats:u1", params{"week", "2026-01-05"})
	key2 := GenerateKey("stats:u1", params{"week", "2026-01-05"})
	key3 := GenerateKey("stats:u1", params{"month", "2026-01-05"})

	if key1 != key2 {
		t.Error("Expected same params to generate same key")
	}
	if key1 == key3 {
		t.Error("Expected different params to generate different key")
	}
	if key1[:9] != "stats:u1:" {
		t.Errorf("key %q should keep the prefix", key1)
	}

	if got := GenerateKey("bad", make(chan int)); got[:4] != "bad:" {
		t.Errorf("unmarshalable params key = %q", got)
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := newTestCache(t, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("user-%d:%d", id, j)
				c.Set(key, j)
				c.Get(key)
				if j%10 == 0 {
					c.DeletePrefix(fmt.Sprintf("user-%d:", id))
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 1000 {
		t.Errorf("Len() = %d, want <= 1000", c.Len())
	}
}

func TestCacheStatsSnapshotIsIndependent(t *testing.T) {
	c := newTestCache(t, time.Minute)
	c.Set("key", 1)

	var wg sync.WaitGroup
	snapshots := make(chan Stats, 50)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Get("key")
		}()
		go func() {
			defer wg.Done()
			snapshots <- c.GetStats()
		}()
	}
	wg.Wait()
	close(snapshots)

	for s := range snapshots {
		if s.Hits > 50 || s.TotalKeys != 1 {
			t.Errorf("snapshot = %+v", s)
		}
	}

	before := c.GetStats()
	c.Get("key")
	if after := c.GetStats(); after.Hits != before.Hits+1 || before.Hits != 50 {
		t.Errorf("hits before = %d after = %d, want 50 then 51", before.Hits, after.Hits)
	}
}
