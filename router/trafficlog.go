package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Direction of a traffic-log entry.
type Direction byte

const (
	DirIn  Direction = '<'
	DirOut Direction = '>'
)

// trafficEntry is one queued log line, per spec.md §6's traffic log
// format: microsecond timestamp, direction, peer id, raw line.
type trafficEntry struct {
	at   time.Time
	dir  Direction
	peer uint64
	line string
}

// TrafficLog is the bounded-queue, size-rotated append-only log from
// spec.md §5 ("the traffic log uses a bounded queue drained by a
// dedicated writer task; if that queue fills, new log entries are
// dropped and a counter incremented — logging must never stall
// forwarding") and §6 ("rotated by size when traffic_max_size set").
type TrafficLog struct {
	dir         string
	maxSize     int64
	keepVersions int
	metrics     *Metrics

	queue chan trafficEntry

	f    *os.File
	size int64
}

const trafficLogQueueDepth = 4096

// NewTrafficLog opens (creating if needed) "traffic.log" inside dir.
// A zero maxSize disables rotation.
func NewTrafficLog(dir string, maxSize int64, keepVersions int, m *Metrics) (*TrafficLog, error) {
	t := &TrafficLog{
		dir:          dir,
		maxSize:      maxSize,
		keepVersions: keepVersions,
		metrics:      m,
		queue:        make(chan trafficEntry, trafficLogQueueDepth),
	}
	if err := t.openCurrent(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TrafficLog) path() string { return filepath.Join(t.dir, "traffic.log") }

func (t *TrafficLog) openCurrent() error {
	f, err := os.OpenFile(t.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("router: open traffic log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	t.f = f
	t.size = info.Size()
	return nil
}

// Record enqueues one line for logging. It never blocks the caller's
// forwarding path: if the queue is full the entry is dropped and
// TrafficLogDropped is incremented.
func (t *TrafficLog) Record(dir Direction, peer uint64, line string, at time.Time) {
	select {
	case t.queue <- trafficEntry{at: at, dir: dir, peer: peer, line: line}:
	default:
		if t.metrics != nil {
			t.metrics.TrafficLogDropped.Inc()
		}
	}
}

// Run drains the queue until ctx is cancelled, writing and rotating as
// needed. Intended to run as its own goroutine, supervised the same
// way every other task in spec.md §5 is.
func (t *TrafficLog) Run(ctx context.Context) error {
	defer t.f.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-t.queue:
			if err := t.write(e); err != nil {
				return err
			}
		}
	}
}

func (t *TrafficLog) write(e trafficEntry) error {
	line := fmt.Sprintf("%s %c %d %s\n", e.at.Format("2006-01-02T15:04:05.000000"), e.dir, e.peer, e.line)
	n, err := t.f.WriteString(line)
	if err != nil {
		return err
	}
	t.size += int64(n)
	if t.maxSize > 0 && t.size >= t.maxSize {
		return t.rotate()
	}
	return nil
}

func (t *TrafficLog) rotate() error {
	if err := t.f.Close(); err != nil {
		return err
	}
	for i := t.keepVersions; i > 0; i-- {
		oldPath := t.rotatedPath(i)
		newPath := t.rotatedPath(i + 1)
		if i == t.keepVersions {
			os.Remove(newPath)
		}
		if _, err := os.Stat(oldPath); err == nil {
			os.Rename(oldPath, newPath)
		}
	}
	if err := os.Rename(t.path(), t.rotatedPath(1)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return t.openCurrent()
}

func (t *TrafficLog) rotatedPath(n int) string {
	return fmt.Sprintf("%s.%d", t.path(), n)
}
