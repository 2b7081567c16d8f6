package router

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteStatusIncludesClientRow(t *testing.T) {
	var buf bytes.Buffer
	WriteStatus(&buf, StatusSnapshot{
		Now:            time.Now(),
		RouterName:     "R1",
		UpstreamTarget: "localhost:20747",
		UpstreamState:  UpstreamLive,
		Clients: []ClientStatusRow{
			{ID: 1, RemoteAddr: "1.2.3.4:5000", Access: AccessFull, State: StateReady, DisplayName: "pilot", LinesIn: 10, LinesOut: 20, QueueDepth: 0},
		},
	})
	out := buf.String()
	require.True(t, strings.Contains(out, "R1"))
	require.True(t, strings.Contains(out, "pilot"))
	require.True(t, strings.Contains(out, "LIVE"))
}

func TestSimSummaryEmptyWhenNothingCached(t *testing.T) {
	cache := NewCache(NewCatalogue())
	require.Equal(t, "", SimSummary(cache))
}

func TestSimSummaryIncludesLayoutAndMetar(t *testing.T) {
	cat := NewCatalogue()
	cache := NewCache(cat)
	cache.Put(KeyLayout, "737", time.Now())
	cache.Put(KeyMetar, "KXXX", time.Now())
	s := SimSummary(cache)
	require.True(t, strings.Contains(s, "737"))
	require.True(t, strings.Contains(s, "KXXX"))
}
