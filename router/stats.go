package router

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// writeTimeSamples bounds the ring buffer of recent per-write
// durations used to compute the max/median/mean/stddev fields
// GET /api/stats reports, per spec.md §6. A fixed-size ring keeps the
// aggregation cheap instead of growing the sample set forever.
const writeTimeSamples = 512

// WriteTimeTracker records how long each line write to a client takes
// and aggregates max/median/mean/stddev on demand. No example in the
// pack exercises a dedicated statistics library for this, so the
// aggregation is done with the standard library's sort/math; the ring
// buffer itself is guarded by a mutex since every client's writer
// goroutine calls Record concurrently.
type WriteTimeTracker struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
}

func NewWriteTimeTracker() *WriteTimeTracker {
	return &WriteTimeTracker{samples: make([]float64, writeTimeSamples)}
}

// Record adds one observed write duration.
func (w *WriteTimeTracker) Record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	w.mu.Lock()
	w.samples[w.next] = ms
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
	w.mu.Unlock()
}

// WriteTimeStats is the aggregate of recorded write durations, in
// milliseconds.
type WriteTimeStats struct {
	Max, Median, Mean, StdDev float64
}

// Stats computes the aggregate over whatever samples have been
// recorded so far. Returns the zero value once the router has never
// written a line to any client.
func (w *WriteTimeTracker) Stats() WriteTimeStats {
	w.mu.Lock()
	n := len(w.samples)
	if !w.full {
		n = w.next
	}
	data := make([]float64, n)
	copy(data, w.samples[:n])
	w.mu.Unlock()

	if n == 0 {
		return WriteTimeStats{}
	}
	sort.Float64s(data)
	max := data[n-1]
	median := data[n/2]
	if n%2 == 0 {
		median = (data[n/2-1] + data[n/2]) / 2
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)
	var variance float64
	for _, v := range data {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)
	return WriteTimeStats{Max: max, Median: median, Mean: mean, StdDev: math.Sqrt(variance)}
}

// RateTracker reports instantaneous lines_in_per_sec/lines_out_per_sec
// figures for GET /api/stats, per spec.md §6. RecordIn/RecordOut bump
// plain atomic counters alongside the existing Prometheus counters
// (reading a live Prometheus counter's current value back out requires
// the test-only testutil package); Sample periodically turns the
// counter deltas into a rate, meant to be driven off the same 1 s tick
// the status table already uses.
type RateTracker struct {
	totalIn, totalOut uint64

	mu            sync.Mutex
	curIn, curOut float64
	lastIn        uint64
	lastOut       uint64
	lastSampledAt time.Time
}

func NewRateTracker() *RateTracker { return &RateTracker{} }

func (rt *RateTracker) RecordIn()  { atomic.AddUint64(&rt.totalIn, 1) }
func (rt *RateTracker) RecordOut() { atomic.AddUint64(&rt.totalOut, 1) }

// Sample recomputes the per-second rates from the counter deltas since
// the previous call.
func (rt *RateTracker) Sample(now time.Time) {
	in := atomic.LoadUint64(&rt.totalIn)
	out := atomic.LoadUint64(&rt.totalOut)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.lastSampledAt.IsZero() {
		rt.lastIn, rt.lastOut, rt.lastSampledAt = in, out, now
		return
	}
	if elapsed := now.Sub(rt.lastSampledAt).Seconds(); elapsed > 0 {
		rt.curIn = float64(in-rt.lastIn) / elapsed
		rt.curOut = float64(out-rt.lastOut) / elapsed
	}
	rt.lastIn, rt.lastOut, rt.lastSampledAt = in, out, now
}

// Rates returns the most recently sampled lines-in/out per second.
func (rt *RateTracker) Rates() (in, out float64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.curIn, rt.curOut
}
