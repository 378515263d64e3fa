// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores serialized search responses keyed by normalized query
// text. Entries expire passively: an expired entry is dropped when it is read.
// Backend failures never surface to callers; they are logged and treated as
// misses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pdiddy/threadseeker/pkg/types"
)

var (
	// ErrMiss is returned by backends when a key is absent or expired.
	ErrMiss = errors.New("cache miss")

	// ErrUnknownBackend is returned by Open for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Backend stores opaque values with a time to live. Implementations must be
// safe for concurrent use. A ttl of zero or less stores without expiry.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Stats counts cache outcomes since the cache was created.
type Stats struct {
	Backend string `json:"backend"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Errors  int64  `json:"errors"`
}

// Cache wraps a Backend with key normalization, hashing and error
// absorption. A Cache with a nil backend never hits.
type Cache struct {
	backend Backend
	prefix  string
	logger  *slog.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// New returns a cache over backend. prefix namespaces every backend key.
func New(backend Backend, prefix string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{backend: backend, prefix: prefix, logger: logger}
}

// Open builds the cache described by cfg. A backend that cannot be reached
// yields an error; see OpenOrDisable for the degrading variant.
func Open(cfg types.CacheConfig, logger *slog.Logger) (*Cache, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case types.CacheNone, "":
		backend = nil
	case types.CacheMemory:
		backend = NewMemoryBackend(nil)
	case types.CacheRedis:
		backend, err = NewRedisBackend(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case types.CacheSQLite:
		backend, err = NewSQLiteBackend(cfg.SQLitePath, nil)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Backend, err)
	}
	return New(backend, cfg.KeyPrefix, logger), nil
}

// OpenOrDisable is Open, except that a backend which cannot be opened is
// logged and replaced by a disabled cache so the service runs uncached.
// Only ErrUnknownBackend, a configuration mistake, is returned.
func OpenOrDisable(cfg types.CacheConfig, logger *slog.Logger) (*Cache, error) {
	c, err := Open(cfg, logger)
	if err == nil {
		return c, nil
	}
	if errors.Is(err, ErrUnknownBackend) {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("cache backend unavailable, running without cache", "backend", cfg.Backend, "error", err)
	return New(nil, cfg.KeyPrefix, logger), nil
}

// NormalizeKey folds case and collapses whitespace so that queries differing
// only in spacing or capitalization share an entry.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// backendKey hashes the normalized key so arbitrary query text maps to a
// fixed-length, backend-safe key.
func (c *Cache) backendKey(key string) string {
	sum := sha256.Sum256([]byte(NormalizeKey(key)))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns the stored value for key and whether it was found.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}
	bk := c.backendKey(key)
	v, err := c.backend.Get(ctx, bk)
	switch {
	case err == nil:
		c.hits.Add(1)
		c.logger.Debug("cache hit", "key", bk)
		return v, true
	case errors.Is(err, ErrMiss):
		c.misses.Add(1)
		c.logger.Debug("cache miss", "key", bk)
	default:
		c.failures.Add(1)
		c.logger.Warn("cache get failed, treating as miss", "backend", c.backend.Name(), "key", bk, "error", err)
	}
	return nil, false
}

// Set stores value under key for ttl. Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.backend == nil {
		return
	}
	bk := c.backendKey(key)
	if err := c.backend.Set(ctx, bk, value, ttl); err != nil {
		c.failures.Add(1)
		c.logger.Warn("cache set failed", "backend", c.backend.Name(), "key", bk, "error", err)
		return
	}
	c.logger.Debug("cache set", "key", bk, "ttl", ttl, "bytes", len(value))
}

// Stats reports hit, miss and error counts.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{Backend: string(types.CacheNone)}
	}
	s := Stats{
		Backend: string(types.CacheNone),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.failures.Load(),
	}
	if c.backend != nil {
		s.Backend = c.backend.Name()
	}
	return s
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
