package router

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWelcomeLeadingBurstOrder(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("Qs121 ECON\nLex1 LEXICON\nLex2 LEXICON\n"))
	require.NoError(t, err)
	cache := NewCache(cat)
	now := time.Now()
	cache.Put(KeyVersion, "10.184", now)
	cache.Put(KeyLayout, "737", now)
	// Lexicon-block keywords are cached through the same upstream
	// key=value path as any other variable (see rules.go's
	// forwardFromUpstream), not a bespoke blob.
	cache.Put("Lex1", "lexentry1", now)
	cache.Put("Lex2", "lexentry2", now)

	w := NewWelcomeBuilder(cache, cat)
	burst := w.LeadingBurst(42)
	require.Equal(t, "id=42", burst[0].String())
	require.Equal(t, "version=10.184", burst[1].String())
	require.Equal(t, "layout=737", burst[2].String())
	require.Equal(t, "Lex1=lexentry1", burst[3].String())
	require.Equal(t, "Lex2=lexentry2", burst[4].String())
	require.Equal(t, SigLoad1, burst[5].String())
}

func TestWelcomeLeadingBurstOmitsUncachedFields(t *testing.T) {
	cat := NewCatalogue()
	cache := NewCache(cat)
	w := NewWelcomeBuilder(cache, cat)
	burst := w.LeadingBurst(1)
	require.Equal(t, "id=1", burst[0].String())
	require.Equal(t, SigLoad1, burst[1].String())
}

func TestWelcomeTrailingBurstSkipsAlreadySentAndDelta(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("Qs121 ECON\nQi198 ECON\nPulse DELTA\n"))
	require.NoError(t, err)
	cache := NewCache(cat)
	now := time.Now()
	cache.Put("Qs121", "hello", now)
	cache.Put("Qi198", "0", now)
	cache.Put("Pulse", "1", now) // no-op: pure-DELTA

	w := NewWelcomeBuilder(cache, cat)
	sent := map[string]bool{"Qs121": true}
	burst := w.TrailingBurst(func(k string) bool { return sent[k] })

	require.Equal(t, "Qi198=0", burst[0].String())
	require.Equal(t, SigLoad2, burst[1].String())
	require.Equal(t, SigLoad3, burst[2].String())
}

func TestWelcomeTrailingBurstIncludesMetar(t *testing.T) {
	cat, err := ParseCatalogue(strings.NewReader("metar START\n"))
	require.NoError(t, err)
	cache := NewCache(cat)
	cache.Put(KeyMetar, "KXXX 1212Z", time.Now())
	w := NewWelcomeBuilder(cache, cat)
	burst := w.TrailingBurst(func(string) bool { return false })
	last := burst[len(burst)-1]
	require.Equal(t, "metar=KXXX 1212Z", last.String())
}
