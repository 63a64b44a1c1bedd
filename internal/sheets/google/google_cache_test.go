package google

import (
	"context"
	"testing"
	"time"
)

func TestRowCacheInitialState(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "id", RowCacheTTL: 2 * time.Minute})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedRowCount != 0 {
		t.Errorf("initial cachedRowCount should be 0, got %d", c.cachedRowCount)
	}
	if time.Now().Before(c.cacheExpiresAt) {
		t.Error("cache should start expired")
	}
	if c.cacheValidDuration != 2*time.Minute {
		t.Errorf("cache duration should be 2 minutes, got %v", c.cacheValidDuration)
	}
}

func TestRowCacheExpiration(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newClient(nil, Config{SpreadsheetID: "id", RowCacheTTL: time.Minute})
	c.now = func() time.Time { return now }

	c.mu.Lock()
	c.cachedSheet = "2024 Ledger"
	c.cachedRowCount = 10
	c.cacheExpiresAt = now.Add(c.cacheValidDuration)
	c.mu.Unlock()

	// svc is nil, so a cache miss would panic inside rowCountLocked.
	c.mu.Lock()
	n, err := c.rowCountLocked(context.Background(), "2024 Ledger")
	c.mu.Unlock()
	if err != nil || n != 10 {
		t.Fatalf("cached count = %d, %v; want 10", n, err)
	}

	now = now.Add(2 * time.Minute)
	c.mu.Lock()
	valid := c.now().Before(c.cacheExpiresAt)
	c.mu.Unlock()
	if valid {
		t.Error("cache should be expired after TTL")
	}
}

func TestInvalidateRowCache(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "id", RowCacheTTL: 10 * time.Minute})

	c.mu.Lock()
	c.cachedSheet = "2024 Ledger"
	c.cachedRowCount = 42
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	c.InvalidateRowCache()

	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().Before(c.cacheExpiresAt) || c.cachedSheet != "" || c.cachedRowCount != 0 {
		t.Error("cache should be cleared after invalidation")
	}
}

func TestRowCacheMutexProtection(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "id"})
	done := make(chan struct{})

	go func() {
		for i := 0; i < 100; i++ {
			c.mu.Lock()
			c.cachedRowCount = i
			c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
			c.mu.Unlock()
		}
		done <- struct{}{}
	}()
	go func() {
		for i := 0; i < 50; i++ {
			c.InvalidateRowCache()
		}
		done <- struct{}{}
	}()

	<-done
	<-done
}
