// Package cache stores computed analyses for a limited time, either in process
// memory or in Redis. Values are stored as JSON so both backends behave the same.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Cache is a TTL keyed store of JSON-encodable values.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether it
	// was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key builds a cache key from parts. Order of parts matters; callers sort
// order-insensitive inputs first.
func Key(parts ...string) string {
	hash := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// PageKey is the cache key of a page analysis of url with the given keyword list.
func PageKey(url string, keywords []string) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	return Key(append([]string{url}, sorted...)...)
}
