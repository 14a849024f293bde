// Package cache is the content-addressed embedding LRU cache of spec.md
// §3/§5/§8: survives process restarts via a serialized JSON file, evicts
// least-recently-used entries over put/get/contains, and treats a hash
// mismatch on get as a stale entry (removed, reported absent).
package cache

import (
	"container/list"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"anteater/internal/logging"
)

const schemaVersion = 1

// Entry is one cached embedding, keyed by id with a content hash for
// invalidation (spec.md §6's persisted schema: `id`, `hash`, `embedding`).
type Entry struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	Embedding []float32 `json:"embedding"`
}

type persistedFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Cache is a process-wide, serialized LRU of embeddings (spec.md §5: "the
// embedding LRU cache is process-wide when configured... concurrent
// mutation is not supported" — the mutex here is what enforces that).
type Cache struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	order      *list.List               // front = most recently used
	elements   map[string]*list.Element // id -> node in order
	dirty      bool
}

// New creates an empty cache bounded at maxEntries, persisted at path.
// It does not load from disk; call Load explicitly.
func New(path string, maxEntries int) *Cache {
	return &Cache{
		path:       path,
		maxEntries: maxEntries,
		order:      list.New(),
		elements:   make(map[string]*list.Element),
	}
}

// Put inserts or refreshes id's embedding under hash, promoting it to
// most-recently-used, evicting the least-recently-used entry if the cache
// is now over maxEntries.
func (c *Cache) Put(id, hash string, embedding []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	if el, ok := c.elements[id]; ok {
		el.Value = &Entry{ID: id, Hash: hash, Embedding: vec}
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&Entry{ID: id, Hash: hash, Embedding: vec})
		c.elements[id] = el
	}
	c.dirty = true

	if c.maxEntries > 0 {
		for c.order.Len() > c.maxEntries {
			c.evictOldest()
		}
	}
}

// evictOldest removes the least-recently-used entry. Caller holds c.mu.
func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	entry := oldest.Value.(*Entry)
	delete(c.elements, entry.ID)
	c.order.Remove(oldest)
}

// Get returns id's embedding if present and its stored hash matches. A
// hash mismatch removes the stale entry and reports absent, per spec.md
// §8's "hash mismatch on get removes the stale entry and returns absent."
func (c *Cache) Get(id, hash string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.elements[id]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*Entry)
	if entry.Hash != hash {
		delete(c.elements, id)
		c.order.Remove(el)
		c.dirty = true
		return nil, false
	}
	c.order.MoveToFront(el)

	vec := make([]float32, len(entry.Embedding))
	copy(vec, entry.Embedding)
	return vec, true
}

// Contains reports whether id is present, regardless of hash, and promotes a
// present entry to most-recently-used.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[id]
	if ok {
		c.order.MoveToFront(el)
	}
	return ok
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Save persists the cache to its path, writing to a temp file in the same
// directory and renaming into place so a crash mid-write never corrupts
// the existing file (spec.md §5's "save is atomic: write to temp, rename
// into place").
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	pf := persistedFile{Version: schemaVersion}
	for e := c.order.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*Entry)
		pf.Entries = append(pf.Entries, *entry)
	}

	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("cache: rename into place: %w", err)
	}

	c.dirty = false
	return nil
}

// Load replaces the cache's contents with what's persisted at path,
// inserting entries in file order (so the first entry is most-recently-used,
// matching the order Save wrote them in). A missing file leaves the cache
// empty, not an error. A corrupt file is treated as spec.md §7's recoverable
// "cache corruption": the cache starts empty and is overwritten on next save.
func (c *Cache) Load() error {
	log := logging.Get(logging.CategoryCache)

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: read: %w", err)
	}

	var pf persistedFile
	if err := json.Unmarshal(data, &pf); err != nil {
		log.Warn("cache: corrupt cache file %s, starting empty: %v", c.path, err)
		c.mu.Lock()
		c.order = list.New()
		c.elements = make(map[string]*list.Element)
		c.dirty = false
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = list.New()
	c.elements = make(map[string]*list.Element)
	for _, entry := range pf.Entries {
		e := entry
		el := c.order.PushBack(&e)
		c.elements[e.ID] = el
	}
	c.dirty = false
	return nil
}
