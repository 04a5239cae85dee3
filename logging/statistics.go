package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Analysis kinds tracked by Statistics.
const (
	KindCompany = "company"
	KindPage    = "page"
)

const (
	visitorWindow = 24 * time.Hour
	popularLimit  = 5

	// maxPopularTargets bounds how many distinct targets are kept between
	// saves. The least analysed ones are dropped first.
	maxPopularTargets = 100
)

// Statistics collects request statistics and persists them as JSON.
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"unique_visitors"`   // IP -> last visit
	AnalysisRequests map[string]int       `json:"analysis_requests"` // kind -> count
	ErrorCount       int                  `json:"error_count"`
	PopularTargets   map[string]int       `json:"popular_targets"` // company or page URL -> count
	TotalLoadTime    float64              `json:"total_load_time"`
	RequestCount     int                  `json:"request_count"`
	LastPersisted    time.Time            `json:"last_persisted"`

	path    string
	devMode bool
	logger  *zap.Logger
	now     func() time.Time
	mutex   sync.RWMutex
}

// NewStatistics creates the statistics and loads any previously saved
// state from path.
func NewStatistics(path string, devMode bool, logger *zap.Logger) *Statistics {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Statistics{
		UniqueVisitors:   make(map[string]time.Time),
		AnalysisRequests: make(map[string]int),
		PopularTargets:   make(map[string]int),
		path:             path,
		devMode:          devMode,
		logger:           logger.Named("statistics"),
		now:              time.Now,
	}

	if err := s.Load(); err != nil {
		s.logger.Warn("could not load existing statistics", zap.Error(err))
	}
	return s
}

// TrackVisitor records a visit from ip.
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = s.now()
}

// cleanURL keeps scheme, host and path. Local and API URLs are dropped.
func cleanURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return ""
	}

	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}

	cleaned := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		cleaned += u.Path
	}
	return strings.TrimSuffix(cleaned, "/")
}

func popularKey(kind, target string) string {
	if kind == KindPage {
		return cleanURL(target)
	}
	return strings.TrimSpace(target)
}

// TrackAnalysis records one analysis request of kind for target, which is a
// company name or a page URL. loadTime is in milliseconds.
func (s *Statistics) TrackAnalysis(kind, target string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests[kind]++
	if key := popularKey(kind, target); key != "" {
		s.PopularTargets[key]++
	}
	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.RequestCount++
}

func (s *Statistics) uniqueVisitorsLocked() int {
	count := 0
	cutoff := s.now().Add(-visitorWindow)
	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}
	return count
}

func (s *Statistics) totalRequestsLocked() int {
	total := 0
	for _, n := range s.AnalysisRequests {
		total += n
	}
	return total
}

func (s *Statistics) errorRateLocked() float64 {
	total := s.totalRequestsLocked()
	if total == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(total) * 100
}

func (s *Statistics) averageLoadTimeLocked() float64 {
	if s.RequestCount == 0 {
		return 0
	}
	return s.TotalLoadTime / float64(s.RequestCount)
}

// PopularTarget is a tracked company or URL and how often it was analysed.
type PopularTarget struct {
	Target string `json:"target"`
	Count  int    `json:"count"`
}

func (s *Statistics) popularLocked(n int) []PopularTarget {
	out := make([]PopularTarget, 0, len(s.PopularTargets))
	for target, count := range s.PopularTargets {
		out = append(out, PopularTarget{Target: target, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Target < out[j].Target
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// pruneLocked forgets visitors outside the visitor window and trims the
// popular targets to maxPopularTargets.
func (s *Statistics) pruneLocked() {
	cutoff := s.now().Add(-visitorWindow)
	for ip, lastVisit := range s.UniqueVisitors {
		if !lastVisit.After(cutoff) {
			delete(s.UniqueVisitors, ip)
		}
	}

	if len(s.PopularTargets) <= maxPopularTargets {
		return
	}
	kept := make(map[string]int, maxPopularTargets)
	for _, p := range s.popularLocked(maxPopularTargets) {
		kept[p.Target] = p.Count
	}
	s.PopularTargets = kept
}

// UniqueVisitorsCount returns the number of visitors seen in the last 24 hours.
func (s *Statistics) UniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitorsLocked()
}

// Popular returns the n most analysed targets, most frequent first.
func (s *Statistics) Popular(n int) []PopularTarget {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularLocked(n)
}

func (s *Statistics) ErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRateLocked()
}

// Snapshot prunes stale entries and returns the statistics for reporting.
// Popular targets are only included in dev mode.
func (s *Statistics) Snapshot() map[string]any {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pruneLocked()

	requests := make(map[string]int, len(s.AnalysisRequests))
	for kind, n := range s.AnalysisRequests {
		requests[kind] = n
	}

	out := map[string]any{
		"unique_visitors_24h": s.uniqueVisitorsLocked(),
		"total_requests":      s.totalRequestsLocked(),
		"requests_by_kind":    requests,
		"error_rate":          s.errorRateLocked(),
		"average_load_time":   s.averageLoadTimeLocked(),
	}
	if s.devMode {
		out["popular_targets"] = s.popularLocked(popularLimit)
	}
	return out
}

// Save writes the statistics to disk.
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pruneLocked()
	s.LastPersisted = s.now()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create statistics directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("could not write statistics file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("could not replace statistics file: %w", err)
	}
	return nil
}

// Load reads the statistics from disk. A missing file is not an error.
func (s *Statistics) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.AnalysisRequests == nil {
		s.AnalysisRequests = make(map[string]int)
	}
	if s.PopularTargets == nil {
		s.PopularTargets = make(map[string]int)
	}
	return nil
}
