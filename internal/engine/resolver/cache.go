package resolver

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/sift/internal/core/domain"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes configurations by key. Entries are never replaced once stored and
// concurrent computations of the same key share one result.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*domain.Configuration
	group   singleflight.Group
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*domain.Configuration)}
}

// Get returns the configuration stored under key.
func (c *Cache) Get(key string) (*domain.Configuration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.entries[key]
	return cfg, ok
}

// Store records cfg under key unless key already has a value, and returns the value
// now stored.
func (c *Cache) Store(key string, cfg *domain.Configuration) *domain.Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	c.entries[key] = cfg
	return cfg
}

// Do returns the configuration stored under key, computing it with fn when absent.
// Errors are returned to every waiting caller but never stored.
func (c *Cache) Do(key string, fn func() (*domain.Configuration, error)) (*domain.Configuration, error) {
	if cfg, ok := c.Get(key); ok {
		return cfg, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if cfg, ok := c.Get(key); ok {
			return cfg, nil
		}
		cfg, err := fn()
		if err != nil {
			return nil, err
		}
		return c.Store(key, cfg), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Configuration), nil //nolint:forcetypeassert // only configurations are stored
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// directoryKey identifies the nested document candidate below the configuration root.
func directoryKey(root *domain.Configuration, candidate string) string {
	return strconv.FormatUint(root.Fingerprint(), 16) + "\x00" + candidate
}

// requestKey identifies a resolution request.
func requestKey(req Request) string {
	h := xxhash.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	write(req.RootDirectory)
	for _, seed := range req.Seeds {
		write(seed)
	}
	_, _ = h.Write([]byte{1})
	for _, rule := range req.OnlyRules {
		write(rule)
	}
	_, _ = h.Write([]byte{1})
	write(req.CachePath)
	write(strconv.FormatBool(req.IgnoreParentChild))
	write(strconv.FormatBool(req.EnableAllRules))
	if req.UseDefaultOnFailure != nil {
		write(strconv.FormatBool(*req.UseDefaultOnFailure))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
