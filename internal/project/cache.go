package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nexous-ai/nexous/internal/nexerr"
)

// PresetCache loads every preset file in a directory once and serves
// read-only lookups afterward, mirroring PresetLoader's load_all/get
// pair. Like the Provider Adapter Registry, it is owned per-Runner
// instance and shared only read-only across concurrent runs (spec §5).
type PresetCache struct {
	dir string

	mu     sync.RWMutex
	loaded bool
	byID   map[string]*PresetSpec
}

// NewPresetCache constructs an unloaded cache rooted at dir.
func NewPresetCache(dir string) *PresetCache {
	return &PresetCache{dir: dir, byID: make(map[string]*PresetSpec)}
}

// LoadAll loads (or reloads) every *.yaml/*.yml file under dir.
func (c *PresetCache) LoadAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[string]*PresetSpec)

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		c.loaded = true
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nexerr.New(nexerr.KindPresetLoad, fmt.Sprintf("reading preset directory %s: %v", c.dir, err), err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		spec, err := LoadPresetFile(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			return err
		}
		c.byID[spec.ID] = spec
	}
	c.loaded = true
	return nil
}

// Get resolves preset id, loading the cache on first use if necessary.
func (c *PresetCache) Get(id string) (*PresetSpec, error) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if !loaded {
		if err := c.LoadAll(); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.byID[id]
	if !ok {
		return nil, nexerr.New(nexerr.KindPresetNotFound, fmt.Sprintf("preset not found: '%s'", id), nil)
	}
	return spec, nil
}

// List returns the loaded preset ids.
func (c *PresetCache) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	return ids
}
