package router

import (
	"sync"
)

// RuntimeState is the router's live-toggleable state: the three
// content filters, an IP blocklist, and the active upstream target.
// It is a single value shared by the core goroutine, the upstream
// session, the status ticker and the HTTP handlers. Every accessor takes
// the mutex, so HTTP handlers read snapshots (Filters, Blocklist) and
// apply changes (SetElevationFilter, BlockAdd, SetUpstream) directly,
// without going through the core goroutine — the teacher's hub.Map
// uses the same RWMutex-guarded-snapshot shape (see hub/config.go's
// conf.RLock/RUnlock around h.conf.m).
type RuntimeState struct {
	mu        sync.RWMutex
	filters   FilterFlags
	blocklist map[string]struct{}
	upstream  UpstreamConfig
	connected bool
}

// NewRuntimeState seeds live state from the static config's PSX filter
// defaults and default upstream target.
func NewRuntimeState(cfg *Config) *RuntimeState {
	u, _ := cfg.DefaultUpstream()
	return &RuntimeState{
		filters: FilterFlags{
			Elevation:      cfg.PSX.FilterElevation,
			Traffic:        cfg.PSX.FilterTraffic,
			FlightControls: cfg.PSX.FilterFlightControls,
		},
		blocklist: make(map[string]struct{}),
		upstream:  u,
	}
}

func (r *RuntimeState) Filters() FilterFlags {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters
}

func (r *RuntimeState) SetElevationFilter(on bool) {
	r.mu.Lock()
	r.filters.Elevation = on
	r.mu.Unlock()
}

func (r *RuntimeState) SetTrafficFilter(on bool) {
	r.mu.Lock()
	r.filters.Traffic = on
	r.mu.Unlock()
}

func (r *RuntimeState) SetFlightControlsFilter(on bool) {
	r.mu.Lock()
	r.filters.FlightControls = on
	r.mu.Unlock()
}

// Blocklist returns a snapshot of blocked addresses.
func (r *RuntimeState) Blocklist() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.blocklist))
	for ip := range r.blocklist {
		out = append(out, ip)
	}
	return out
}

func (r *RuntimeState) BlockAdd(ip string) {
	r.mu.Lock()
	r.blocklist[ip] = struct{}{}
	r.mu.Unlock()
}

func (r *RuntimeState) BlockRemove(ip string) {
	r.mu.Lock()
	delete(r.blocklist, ip)
	r.mu.Unlock()
}

func (r *RuntimeState) IsBlocked(ip string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.blocklist[ip]
	return ok
}

// Upstream returns the current upstream target and whether it is live.
func (r *RuntimeState) Upstream() (UpstreamConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.upstream, r.connected
}

// SetUpstream atomically replaces the target, per spec.md §4.4
// "Switchover": the caller (UpstreamSession) is responsible for
// tearing down the current connection so the reconnect loop picks up
// the new target on its next dial.
func (r *RuntimeState) SetUpstream(u UpstreamConfig) {
	r.mu.Lock()
	r.upstream = u
	r.mu.Unlock()
}

func (r *RuntimeState) SetConnected(v bool) {
	r.mu.Lock()
	r.connected = v
	r.mu.Unlock()
}
