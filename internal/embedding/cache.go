package embedding

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

func init() {
	gob.Register([]float32(nil))
}

// Cache maps exact text to its embedding. Entries never expire; the whole
// cache is persisted to path on Flush and reloaded on open.
type Cache struct {
	path    string
	store   *cache.Cache
	flushMu sync.Mutex
}

// OpenCache loads the cache file at path if it exists. An unreadable or corrupt
// file is logged and replaced by an empty cache. An empty path keeps the
// cache in memory only.
func OpenCache(path string, logger *zap.Logger) (*Cache, error) {
	c := &Cache{
		path:  path,
		store: cache.New(cache.NoExpiration, 0),
	}
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	defer f.Close()

	if err := c.store.Load(f); err != nil {
		logger.Warn("embedding cache unreadable, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		c.store = cache.New(cache.NoExpiration, 0)
		return c, nil
	}

	logger.Info("embedding cache loaded",
		zap.String("path", path),
		zap.Int("entries", c.store.ItemCount()),
	)
	return c, nil
}

func (c *Cache) Get(text string) ([]float32, bool) {
	v, ok := c.store.Get(text)
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float32)
	return vec, ok
}

func (c *Cache) Set(text string, vec []float32) {
	c.store.Set(text, vec, cache.NoExpiration)
}

func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// Dimension reports the length of any cached vector
func (c *Cache) Dimension() (int, bool) {
	for _, item := range c.store.Items() {
		if vec, ok := item.Object.([]float32); ok && len(vec) > 0 {
			return len(vec), true
		}
	}
	return 0, false
}

// Flush writes the cache to disk atomically (temp file + rename)
func (c *Cache) Flush() error {
	if c.path == "" {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.store.Save(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode embedding cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace embedding cache: %w", err)
	}
	return nil
}
