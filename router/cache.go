package router

import "time"

// CacheEntry is one variable cache row, per spec.md §3.
type CacheEntry struct {
	Keyword     string
	Value       string
	LastUpdated time.Time
	Mode        Mode
}

// Cache is the in-memory keyword -> latest-value map that feeds the
// welcome sequence and the operator display. It is owned exclusively
// by the router's single core goroutine (spec.md §3 "Ownership");
// nothing in this package takes a lock because nothing else is
// permitted to touch it concurrently — the same single-writer
// discipline the teacher enforces by routing all hub mutation through
// one logical task.
type Cache struct {
	cat     *Catalogue
	entries map[string]*CacheEntry
}

// NewCache builds an empty cache bound to a catalogue for mode
// lookups and snapshot ordering.
func NewCache(cat *Catalogue) *Cache {
	return &Cache{cat: cat, entries: make(map[string]*CacheEntry)}
}

// Put records a new value for keyword, unless its mode is pure-DELTA
// (spec.md invariant: "cache NEVER holds a pure-DELTA keyword").
// Put is a no-op for pure-DELTA keywords and returns false.
func (c *Cache) Put(keyword, value string, now time.Time) bool {
	mode := c.cat.EffectiveMode(keyword)
	if mode.PureDelta() {
		return false
	}
	e, ok := c.entries[keyword]
	if !ok {
		e = &CacheEntry{Keyword: keyword, Mode: mode}
		c.entries[keyword] = e
	}
	e.Value = value
	e.Mode = mode
	e.LastUpdated = now
	return true
}

// Get returns the cached value for keyword, if any.
func (c *Cache) Get(keyword string) (string, bool) {
	e, ok := c.entries[keyword]
	if !ok {
		return "", false
	}
	return e.Value, true
}

// Entry returns the full cache row for keyword, if any.
func (c *Cache) Entry(keyword string) (CacheEntry, bool) {
	e, ok := c.entries[keyword]
	if !ok {
		return CacheEntry{}, false
	}
	return *e, true
}

// Snapshot returns every cache entry in catalogue declaration order,
// per spec.md §4.1's ordering invariant. Keywords that are cached but
// absent from the catalogue (unknown-but-forwarded variables) are
// appended after the catalogue-ordered entries, in map iteration
// order — acceptable because the invariant only binds keywords the
// catalogue declares.
func (c *Cache) Snapshot() []CacheEntry {
	out := make([]CacheEntry, 0, len(c.entries))
	seen := make(map[string]struct{}, len(c.entries))
	for _, kw := range c.cat.Order() {
		if e, ok := c.entries[kw]; ok {
			out = append(out, *e)
			seen[kw] = struct{}{}
		}
	}
	for kw, e := range c.entries {
		if _, ok := seen[kw]; ok {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// SnapshotNonDelta returns Snapshot filtered to entries whose mode is
// not pure-DELTA — used by the "bang" reply and the welcome walk,
// both of which must never emit a DELTA pulse as if it were still
// current (spec.md §4.2 rule 4, §4.3 step 8).
func (c *Cache) SnapshotNonDelta() []CacheEntry {
	all := c.Snapshot()
	out := make([]CacheEntry, 0, len(all))
	for _, e := range all {
		if !e.Mode.PureDelta() {
			out = append(out, e)
		}
	}
	return out
}
