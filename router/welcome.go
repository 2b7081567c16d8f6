package router

import (
	"strconv"
	"time"
)

// DefaultStartWait is the default T from spec.md §4.3 step 6: "wait up
// to T (default 2 s) for START keywords to arrive and be forwarded;
// regardless, proceed."
const DefaultStartWait = 2 * time.Second

// WelcomeBuilder synthesizes the welcome burst entirely from cache,
// per spec.md §4.3 ("never blocks on upstream"). It is a pure, stateless
// helper: the caller (the core routing goroutine in router.go) owns the
// timing of the mid-sequence START wait and the session mutations
// (MarkWelcomeKeyword, SetWelcomeSent); WelcomeBuilder only computes
// what messages those steps produce.
type WelcomeBuilder struct {
	cache *Cache
	cat   *Catalogue
}

func NewWelcomeBuilder(cache *Cache, cat *Catalogue) *WelcomeBuilder {
	return &WelcomeBuilder{cache: cache, cat: cat}
}

// LeadingBurst computes steps 1-5 of spec.md §4.3: id, version, layout,
// lexicon block, load1. It is sent immediately on ACCEPTED->WELCOMING.
func (w *WelcomeBuilder) LeadingBurst(sessionID uint64) []Message {
	out := []Message{KeyVal(KeyID, strconv.FormatUint(sessionID, 10))}
	if v, ok := w.cache.Get(KeyVersion); ok {
		out = append(out, KeyVal(KeyVersion, v))
	}
	if v, ok := w.cache.Get(KeyLayout); ok {
		out = append(out, KeyVal(KeyLayout, v))
	}
	out = append(out, w.lexiconBlock()...)
	out = append(out, Signal(SigLoad1))
	return out
}

// lexiconBlock renders the lexicon block from cache, per spec.md
// §4.3 step 4: every catalogue keyword declared LEXICON mode, in
// catalogue order, each as a key=value line exactly like any other
// cached variable — these arrive and are cached through the normal
// upstream key=value path (rules.go's forwardFromUpstream), they are
// simply never forwarded individually, only replayed here as a block.
func (w *WelcomeBuilder) lexiconBlock() []Message {
	var out []Message
	for _, e := range w.cache.Snapshot() {
		if !e.Mode.IsLexicon() {
			continue
		}
		out = append(out, KeyVal(e.Keyword, e.Value))
	}
	return out
}

// TrailingBurst computes steps 8-10: walk the cache in catalogue
// order, emitting every entry not already sent during the welcome and
// not pure-DELTA, then load2, load3, then metar if cached. The fixed
// welcome-only keys and lexicon keywords are skipped in the walk, since
// the leading burst (or the final metar line) already carries them.
func (w *WelcomeBuilder) TrailingBurst(alreadySent func(keyword string) bool) []Message {
	var out []Message
	for _, e := range w.cache.SnapshotNonDelta() {
		if alreadySent(e.Keyword) || isWelcomeOnlyKey(e.Keyword) || e.Mode.IsLexicon() {
			continue
		}
		out = append(out, KeyVal(e.Keyword, e.Value))
	}
	out = append(out, Signal(SigLoad2), Signal(SigLoad3))
	if v, ok := w.cache.Get(KeyMetar); ok {
		out = append(out, KeyVal(KeyMetar, v))
	}
	return out
}
