package router

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCachePutAndGet(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("layout START\nelevation CONTINUOUS\n"))
	require.NoError(t, err)
	cache := NewCache(cat)

	ok := cache.Put("layout", "737", time.Now())
	require.True(t, ok)
	v, found := cache.Get("layout")
	require.True(t, found)
	require.Equal(t, "737", v)
}

func TestCachePutRejectsPureDelta(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("speedbrake DELTA\n"))
	require.NoError(t, err)
	cache := NewCache(cat)

	ok := cache.Put("speedbrake", "1", time.Now())
	require.False(t, ok)
	_, found := cache.Get("speedbrake")
	require.False(t, found)
}

func TestCacheSnapshotFollowsCatalogueOrder(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("b ECON\na ECON\nc ECON\n"))
	require.NoError(t, err)
	cache := NewCache(cat)
	now := time.Now()
	cache.Put("a", "1", now)
	cache.Put("b", "2", now)
	cache.Put("c", "3", now)

	snap := cache.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, "b", snap[0].Keyword)
	require.Equal(t, "a", snap[1].Keyword)
	require.Equal(t, "c", snap[2].Keyword)
}

func TestCacheSnapshotNonDeltaExcludesDeltaKeywords(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("a ECON\nb DELTA\n"))
	require.NoError(t, err)
	cache := NewCache(cat)
	now := time.Now()
	cache.Put("a", "1", now)
	cache.Put("b", "2", now) // no-op, b is pure-DELTA

	snap := cache.SnapshotNonDelta()
	require.Len(t, snap, 1)
	require.Equal(t, "a", snap[0].Keyword)
}

func TestCacheEntryReturnsFullRow(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("a START\n"))
	require.NoError(t, err)
	cache := NewCache(cat)
	now := time.Now()
	cache.Put("a", "x", now)

	e, ok := cache.Entry("a")
	require.True(t, ok)
	require.Equal(t, "a", e.Keyword)
	require.Equal(t, "x", e.Value)
	require.Equal(t, ModeStart, e.Mode)
}
