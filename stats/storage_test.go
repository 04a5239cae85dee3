package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	require.NoError(t, err)

	t.Run("Increment", func(t *testing.T) {
		storage.Increment(Delta{PageCacheHits: 1, PageCacheMisses: 2, CompanyCacheHits: 3, CompanyCacheMisses: 4, ProviderFailures: 5})
		stats := storage.GetCurrentStats()

		assert.Equal(t, 1, stats.PageCacheHits)
		assert.Equal(t, 2, stats.PageCacheMisses)
		assert.Equal(t, 3, stats.CompanyCacheHits)
		assert.Equal(t, 4, stats.CompanyCacheMisses)
		assert.Equal(t, 5, stats.ProviderFailures)
		assert.False(t, stats.LastUpdated.IsZero())
	})

	t.Run("Recorders", func(t *testing.T) {
		before := storage.GetCurrentStats()
		storage.RecordPageLookup(true)
		storage.RecordPageLookup(false)
		storage.RecordCompanyLookup(true)
		storage.RecordCompanyLookup(false)
		storage.RecordProviderFailure()

		after := storage.GetCurrentStats()
		assert.Equal(t, before.PageCacheHits+1, after.PageCacheHits)
		assert.Equal(t, before.PageCacheMisses+1, after.PageCacheMisses)
		assert.Equal(t, before.CompanyCacheHits+1, after.CompanyCacheHits)
		assert.Equal(t, before.CompanyCacheMisses+1, after.CompanyCacheMisses)
		assert.Equal(t, before.ProviderFailures+1, after.ProviderFailures)
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := time.Now().AddDate(0, -2, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.stats[oldMonth] = &MonthlyStats{PageCacheHits: 100}
		storage.mutex.Unlock()

		storage.Cleanup(1)

		_, exists := storage.GetMonthlyStats(oldMonth)
		assert.False(t, exists, "old stats should have been cleaned up")
		assert.Equal(t, []string{time.Now().Format("2006-01")}, storage.GetAllMonths())
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.Increment(Delta{PageCacheHits: 1, ProviderFailures: 1})
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		after := storage.GetCurrentStats()
		assert.Equal(t, before.PageCacheHits+1000, after.PageCacheHits)
		assert.Equal(t, before.ProviderFailures+1000, after.ProviderFailures)
	})

	t.Run("PersistenceAcrossShutdown", func(t *testing.T) {
		want := storage.GetCurrentStats()
		require.NoError(t, storage.Shutdown())

		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		require.NoError(t, err)
		assert.Less(t, info.Size(), int64(1024))

		reloaded, err := NewStorage(tempDir, nil)
		require.NoError(t, err)
		defer reloaded.Shutdown()

		got := reloaded.GetCurrentStats()
		assert.Equal(t, want.PageCacheHits, got.PageCacheHits)
		assert.Equal(t, want.ProviderFailures, got.ProviderFailures)
	})
}

func TestShutdownIsIdempotent(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, storage.Shutdown())
	require.NoError(t, storage.Shutdown())

	var nilStorage *Storage
	assert.NoError(t, nilStorage.Shutdown())
}
