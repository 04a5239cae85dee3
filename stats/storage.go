package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MonthlyStats holds the counters collected during one calendar month
type MonthlyStats struct {
	PageCacheHits      int       `json:"page_cache_hits"`
	PageCacheMisses    int       `json:"page_cache_misses"`
	CompanyCacheHits   int       `json:"company_cache_hits"`
	CompanyCacheMisses int       `json:"company_cache_misses"`
	ProviderFailures   int       `json:"provider_failures"`
	LastUpdated        time.Time `json:"last_updated"`
}

// Delta is an increment applied to the current month's counters
type Delta struct {
	PageCacheHits      int
	PageCacheMisses    int
	CompanyCacheHits   int
	CompanyCacheMisses int
	ProviderFailures   int
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	logger      *zap.Logger
	now         func() time.Time
}

// NewStorage creates a statistics storage persisted to dataDir/stats.json
func NewStorage(dataDir string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger.Named("stats"),
		now:         time.Now,
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to a temporary file and renames it into place
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Warn("failed to persist statistics", zap.Error(err))
		}
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// Increment adds d to the current month's counters
func (s *Storage) Increment(d Delta) {
	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}

	stats.PageCacheHits += d.PageCacheHits
	stats.PageCacheMisses += d.PageCacheMisses
	stats.CompanyCacheHits += d.CompanyCacheHits
	stats.CompanyCacheMisses += d.CompanyCacheMisses
	stats.ProviderFailures += d.ProviderFailures
	stats.LastUpdated = s.now()

	if s.now().Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = s.now()
	}
}

// RecordPageLookup counts a page analysis cache lookup
func (s *Storage) RecordPageLookup(hit bool) {
	if hit {
		s.Increment(Delta{PageCacheHits: 1})
		return
	}
	s.Increment(Delta{PageCacheMisses: 1})
}

// RecordCompanyLookup counts a lookup of a stored company analysis
func (s *Storage) RecordCompanyLookup(hit bool) {
	if hit {
		s.Increment(Delta{CompanyCacheHits: 1})
		return
	}
	s.Increment(Delta{CompanyCacheMisses: 1})
}

// RecordProviderFailure counts a failed provider call
func (s *Storage) RecordProviderFailure() {
	s.Increment(Delta{ProviderFailures: 1})
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// Cleanup removes statistics older than retainMonths months, counting the
// current month as the first.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	now := s.now()
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[now.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	s.logger.Debug("pruned statistics", zap.Int("retain_months", retainMonths))
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and flushes statistics to disk
func (s *Storage) Shutdown() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
	})
	return s.save()
}
