// Package cache stores values on disk as gob files with a time-to-live.
package cache

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ka2n/fhirval/log"
	"github.com/morikuni/failure/v2"
)

var (
	// DefaultTTL is the default time-to-live for cached entries
	DefaultTTL = 24 * time.Hour

	// DefaultDir is the default cache directory
	DefaultDir string
)

// Entry represents a cached item
type Entry[T any] struct {
	Value     T
	CreatedAt time.Time
}

// Cache provides a generic caching mechanism
type Cache[T any] struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func init() {
	cacheHome, err := os.UserCacheDir()
	if err != nil {
		DefaultDir = filepath.Join(os.TempDir(), "fhirval")
	} else {
		DefaultDir = filepath.Join(cacheHome, "fhirval")
	}
}

// New returns a cache stored under DefaultDir/namespace
func New[T any](namespace string) *Cache[T] {
	return NewWithDir[T](filepath.Join(DefaultDir, normalizeKey(namespace)), DefaultTTL)
}

// NewWithDir returns a cache stored in dir
func NewWithDir[T any](dir string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

// normalizeKey converts a cache key into a filesystem-safe file name.
// Path separators are replaced too so a key never escapes the cache dir.
func normalizeKey(key string) string {
	normalized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, key)

	for strings.Contains(normalized, "..") {
		normalized = strings.ReplaceAll(normalized, "..", ".")
	}
	return normalized
}

// GetOrSet retrieves a value from cache or stores the result of fn.
// forceUpdate skips the lookup. A failure to write the cache is logged and
// the fresh value is still returned.
func (c *Cache[T]) GetOrSet(key string, fn func() (T, error), forceUpdate bool) (T, error) {
	path := filepath.Join(c.dir, normalizeKey(key)+".gob")

	if !forceUpdate {
		if entry, err := c.loadEntry(path); err == nil {
			if c.now().Sub(entry.CreatedAt) < c.ttl {
				log.Debug("cache hit", "key", key)
				return entry.Value, nil
			}
		}
	}

	value, err := fn()
	if err != nil {
		var zero T
		return zero, err
	}

	entry := Entry[T]{
		Value:     value,
		CreatedAt: c.now(),
	}
	if err := c.saveEntry(path, entry); err != nil {
		log.Warn("failed to write cache", "key", key, "error", err)
	}

	return value, nil
}

func (c *Cache[T]) loadEntry(path string) (*Entry[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entry Entry[T]
	if err := gob.NewDecoder(f).Decode(&entry); err != nil {
		return nil, failure.Wrap(err)
	}

	return &entry, nil
}

func (c *Cache[T]) saveEntry(path string, entry Entry[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return failure.Wrap(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return failure.Wrap(err)
	}
	if err := gob.NewEncoder(tmp).Encode(entry); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return failure.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return failure.Wrap(err)
	}
	return failure.Wrap(os.Rename(tmp.Name(), path))
}

// Clear removes all cached entries
func (c *Cache[T]) Clear() error {
	return os.RemoveAll(c.dir)
}

// SetTTL updates the cache TTL
func (c *Cache[T]) SetTTL(d time.Duration) {
	c.ttl = d
}

// Dir returns the directory entries are stored in
func (c *Cache[T]) Dir() string {
	return c.dir
}
