// Package cache provides an LRU, disk-persistable cache of analysis
// results keyed by source content hash, so internal/driver can skip
// re-seeding and re-draining files that have not changed since the last
// run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Declaration is the serializable projection of a prune.Declaration: the
// pointer identity a *ast.Name carries is only meaningful within the
// NameTable of the run that produced it, so the cache stores spellings
// instead, and internal/driver reports a cached result by spelling as is.
type Declaration struct {
	Name string `msgpack:"name"`
	Kind string `msgpack:"kind"` // "function" or "variable"
	Live bool   `msgpack:"live"`
}

// Diagnostic is the serializable projection of a diagnostic.Diagnostic.
type Diagnostic struct {
	Severity string `msgpack:"severity"`
	Code     string `msgpack:"code"`
	Message  string `msgpack:"message"`
	Line     int    `msgpack:"line"`
	Column   int    `msgpack:"column"`
}

// Result is what gets cached for one source file: everything
// internal/driver needs to reproduce a report without re-running the
// analyzer.
type Result struct {
	Declarations []Declaration `msgpack:"declarations"`
	Diagnostics  []Diagnostic  `msgpack:"diagnostics"`
}

// Key hashes source content into a cache key. Two files with identical
// content and the same entry-point configuration hash to the same key,
// so the digest is computed over both.
func Key(source []byte, entryPointNames []string) string {
	h := sha256.New()
	h.Write(source)
	for _, n := range entryPointNames {
		h.Write([]byte{0})
		h.Write([]byte(n))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// entry is one cached result plus the bookkeeping an LRU needs.
type entry struct {
	key        string
	value      Result
	accessedAt time.Time
	prev, next *entry
}

// Cache is an in-memory LRU cache of Results, keyed by content hash, with
// msgpack-based disk persistence.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*entry
	head    *entry
	tail    *entry
	len     int
	maxSize int
}

// New creates a Cache holding at most maxSize entries. maxSize <= 0 means
// unlimited.
func New(maxSize int) *Cache {
	return &Cache{items: make(map[string]*entry), maxSize: maxSize}
}

// Get retrieves a cached Result for key.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return Result{}, false
	}
	e.accessedAt = time.Now()
	c.moveToFront(e)
	return e.value, true
}

// Set stores a Result for key, evicting the least recently used entry if
// the cache is full.
func (c *Cache) Set(key string, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.accessedAt = time.Now()
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, accessedAt: time.Now()}
	c.items[key] = e
	c.pushFront(e)
	c.len++

	if c.maxSize > 0 {
		for c.len > c.maxSize {
			c.evictOldest()
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.len
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *Cache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache) evictOldest() {
	if c.tail == nil {
		return
	}
	e := c.tail
	c.unlink(e)
	delete(c.items, e.key)
	c.len--
}

// persisted is the on-disk shape: the newest entry first, so Load can
// rebuild the LRU order by replaying from the tail backwards.
type persisted struct {
	Key   string `msgpack:"key"`
	Value Result `msgpack:"value"`
}

// Save persists every cached entry to w, most-recently-used first.
func (c *Cache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]persisted, 0, c.len)
	for e := c.head; e != nil; e = e.next {
		entries = append(entries, persisted{Key: e.key, Value: e.value})
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the cache's contents with what was saved to r.
func (c *Cache) Load(r io.Reader) error {
	var entries []persisted
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry)
	c.head, c.tail = nil, nil
	c.len = 0
	for i := len(entries) - 1; i >= 0; i-- {
		p := entries[i]
		e := &entry{key: p.Key, value: p.Value, accessedAt: time.Now()}
		c.items[p.Key] = e
		c.pushFront(e)
		c.len++
	}
	return nil
}

// LoadFromFile loads a previously saved cache from path. A missing file is
// not an error; it just means there is nothing to warm the cache with yet.
func (c *Cache) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// SaveToFile persists the cache to path, creating it if necessary.
func (c *Cache) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}
