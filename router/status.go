package router

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// StatusSnapshot is everything status.go needs to render one status
// table tick, per spec.md §4.7: "Status snapshot printed at a
// configurable cadence (default 1 s) to stdout: header, upstream line,
// per-client row, footer, one-line simulation summary pulled from
// cache."
type StatusSnapshot struct {
	Now            time.Time
	RouterName     string
	UpstreamTarget string
	UpstreamState  UpstreamState
	Clients        []ClientStatusRow
	SimSummary     string
}

// ClientStatusRow is one per-client status line.
type ClientStatusRow struct {
	ID          uint64
	RemoteAddr  string
	Access      AccessLevel
	State       SessionState
	DisplayName string
	LinesIn     uint64
	LinesOut    uint64
	QueueDepth  int
	QueueWarn   bool
}

// WriteStatus renders one snapshot to w in the fixed-width table shape
// the teacher's own status tooling favors (see cmd/go-hub/cmd/serve.go's
// banner printf block): simple aligned columns, no external table
// library, since the pack doesn't exercise one for this kind of
// operator-facing text.
func WriteStatus(w io.Writer, s StatusSnapshot) {
	fmt.Fprintf(w, "--- %s  %s  upstream=%s [%s] ---\n",
		s.RouterName, s.Now.Format("15:04:05"), s.UpstreamTarget, s.UpstreamState)
	fmt.Fprintf(w, "%-6s %-21s %-8s %-8s %-20s %8s %8s %6s\n",
		"ID", "ADDR", "ACCESS", "STATE", "NAME", "IN", "OUT", "QUEUE")
	for _, c := range s.Clients {
		warn := ""
		if c.QueueWarn {
			warn = "!"
		}
		fmt.Fprintf(w, "%-6d %-21s %-8s %-8s %-20s %8d %8d %5d%s\n",
			c.ID, c.RemoteAddr, c.Access, c.State, c.DisplayName, c.LinesIn, c.LinesOut, c.QueueDepth, warn)
	}
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	if s.SimSummary != "" {
		fmt.Fprintln(w, s.SimSummary)
	}
}

// SimSummary builds the one-line simulation summary pulled from cache,
// per spec.md §4.7, preferring the most recognizable fields a PSX
// operator would want to see at a glance.
func SimSummary(cache *Cache) string {
	layout, _ := cache.Get(KeyLayout)
	metar, _ := cache.Get(KeyMetar)
	if layout == "" && metar == "" {
		return ""
	}
	return fmt.Sprintf("sim: layout=%s metar=%s", layout, metar)
}
