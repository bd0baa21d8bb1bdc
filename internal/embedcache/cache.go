package embedcache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	// MinMemoryBudgetBytes is the floor for the resident byte budget. A
	// misconfigured smaller budget is raised to this value.
	MinMemoryBudgetBytes = 8 << 20

	// maxEntries caps the LRU entry count; the effective bound is the byte
	// budget, enforced on insert.
	maxEntries = 1 << 20

	bytesPerDim = 4 // float32
)

// Config configures a Cache. An empty Dir disables disk persistence.
type Config struct {
	Dir               string
	MemoryBudgetBytes int64
	Logger            *slog.Logger
}

// Cache is a byte-budgeted LRU of embedding vectors keyed by item id and
// validated by content hash, with an optional disk tier. The memory tier is
// a single mutual-exclusion domain; disk files for different ids may be read
// and written concurrently. Disk errors are never surfaced: a failed read is
// a miss, a failed write leaves the entry memory-only.
type Cache struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, *entry]
	resident int64
	budget   int64
	dir      string
	log      *slog.Logger
}

type entry struct {
	hash string
	vec  []float32
}

// fileMeta is the sidecar metadata record written next to each vector file.
// The layout is a persistence contract; field names must not change.
type fileMeta struct {
	ID    string `json:"id"`
	Hash  string `json:"hash"`
	Dims  int    `json:"dims"`
	Bytes int    `json:"bytes"`
	File  string `json:"file,omitempty"`
}

// New creates a cache. When persistence is enabled the directory is created
// eagerly; failure to create it silently disables the disk tier.
func New(cfg Config) *Cache {
	budget := cfg.MemoryBudgetBytes
	if budget < MinMemoryBudgetBytes {
		budget = MinMemoryBudgetBytes
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Cache{budget: budget, dir: cfg.Dir, log: log}
	c.lru, _ = simplelru.NewLRU(maxEntries, func(key string, e *entry) {
		c.resident -= entrySize(e.vec)
	})

	if c.dir != "" {
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			log.Warn("embedding cache dir unavailable, persistence disabled", "dir", c.dir, "error", err)
			c.dir = ""
		}
	}
	return c
}

// TextHash returns a cheap content fingerprint of text, used as the cache
// invalidation key.
func TextHash(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

// Get returns the cached vector for id if its content hash matches wantHash
// and, when wantDims > 0, its dimensionality matches. Recency is refreshed
// only on a hash-matching memory hit. On a memory miss the disk tier is
// consulted; a successful disk load repopulates the memory tier. Any
// mismatch or I/O problem is reported as a plain miss.
func (c *Cache) Get(id, wantHash string, wantDims int) ([]float32, bool) {
	c.mu.Lock()
	if e, ok := c.lru.Peek(id); ok && e.hash == wantHash && dimsOK(e.vec, wantDims) {
		c.lru.Get(id) // refresh recency
		vec := cloneVec(e.vec)
		c.mu.Unlock()
		return vec, true
	}
	c.mu.Unlock()

	if c.dir == "" {
		return nil, false
	}

	vec, ok := c.loadFromDisk(id, wantHash, wantDims)
	if !ok {
		return nil, false
	}
	c.insert(id, wantHash, vec)
	return cloneVec(vec), true
}

// Set stores the vector under (id, hash). With persistence enabled the
// binary vector file is written before its metadata sidecar so a reader
// never observes metadata pointing at a missing or partial vector. Write
// failures are swallowed; the cache is an optimization, not a durability
// guarantee.
func (c *Cache) Set(id, hash string, vec []float32) {
	vec = cloneVec(vec)

	if c.dir != "" {
		if err := c.writeToDisk(id, hash, vec); err != nil {
			c.log.Debug("embedding cache write failed", "id", id, "error", err)
		}
	}

	c.insert(id, hash, vec)
}

// ResidentBytes reports the in-memory byte footprint of cached vectors.
func (c *Cache) ResidentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resident
}

// Len reports the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// insert places an entry in the memory tier, evicting least-recently-used
// entries until the newcomer fits the byte budget. Eviction never touches
// disk files. An entry larger than the whole budget stays out of memory
// entirely (it remains loadable from disk).
func (c *Cache) insert(id, hash string, vec []float32) {
	size := entrySize(vec)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Replace any previous version of the same id first so its size is
	// released before the fit check.
	c.lru.Remove(id)

	if size > c.budget {
		return
	}
	for c.resident+size > c.budget && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
	}

	c.lru.Add(id, &entry{hash: hash, vec: vec})
	c.resident += size
}

func (c *Cache) loadFromDisk(id, wantHash string, wantDims int) ([]float32, bool) {
	if !persistableID(id) {
		return nil, false
	}

	metaRaw, err := os.ReadFile(filepath.Join(c.dir, id+".json"))
	if err != nil {
		return nil, false
	}
	var meta fileMeta
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		c.log.Debug("embedding cache metadata unreadable", "id", id, "error", err)
		return nil, false
	}
	if meta.Hash != wantHash || meta.Dims <= 0 || meta.Bytes != meta.Dims*bytesPerDim {
		return nil, false
	}
	if wantDims > 0 && meta.Dims != wantDims {
		return nil, false
	}

	raw, err := os.ReadFile(filepath.Join(c.dir, id+".bin"))
	if err != nil {
		return nil, false
	}
	if len(raw) != meta.Bytes {
		c.log.Debug("embedding cache vector truncated", "id", id, "want", meta.Bytes, "got", len(raw))
		return nil, false
	}

	vec := make([]float32, meta.Dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*bytesPerDim:]))
	}
	return vec, true
}

func (c *Cache) writeToDisk(id, hash string, vec []float32) error {
	if !persistableID(id) {
		return fmt.Errorf("id %q is not a valid cache file name", id)
	}

	raw := make([]byte, len(vec)*bytesPerDim)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(raw[i*bytesPerDim:], math.Float32bits(v))
	}

	binName := id + ".bin"
	if err := os.WriteFile(filepath.Join(c.dir, binName), raw, 0o644); err != nil {
		return err
	}

	meta := fileMeta{ID: id, Hash: hash, Dims: len(vec), Bytes: len(raw), File: binName}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, id+".json"), metaRaw, 0o644)
}

// persistableID rejects ids that would escape the cache directory. Such
// entries stay memory-only.
func persistableID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

func dimsOK(vec []float32, wantDims int) bool {
	return wantDims <= 0 || len(vec) == wantDims
}

func entrySize(vec []float32) int64 {
	return int64(len(vec) * bytesPerDim)
}

func cloneVec(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
