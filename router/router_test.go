package router

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/macroflight/frankenrouter/internal/wire"
)

func testRouter(t *testing.T) *Router {
	t.Helper()
	cat := NewCatalogue()
	cfg := &Config{
		Identity: IdentityConfig{Simulator: "PSX", Router: "R1"},
		Listen:   ListenConfig{Port: 10747},
	}
	r, err := New(cfg, cat, NewMetrics(testRegistry(t)), testLogger(), nil)
	require.NoError(t, err)
	return r
}

// attachUpstreamPipe wires r.upstream's live connection to one end of
// an in-memory net.Pipe, the same way Run would after a successful
// dial, and returns the far end for the test to read/write.
func attachUpstreamPipe(r *Router) net.Conn {
	local, remote := net.Pipe()
	r.upstream.connMu.Lock()
	r.upstream.conn = wire.NewConn(local)
	r.upstream.connMu.Unlock()
	return remote
}

func TestOnUpstreamConnectedSendsIdentAndResendsDemand(t *testing.T) {
	r := testRouter(t)
	remote := attachUpstreamPipe(r)
	defer remote.Close()

	s := NewClientSession(1, &net.TCPAddr{}, defaultOutboxDepth)
	s.AddDemand("Qs121")
	r.clientsMu.Lock()
	r.clients[1] = s
	r.clientsMu.Unlock()

	lines := make(chan string, 4)
	go func() {
		wc := wire.NewConn(remote)
		for i := 0; i < 2; i++ {
			line, err := wc.ReadLine()
			if err != nil {
				return
			}
			lines <- string(line)
		}
	}()

	r.onUpstreamConnected()

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case l := <-lines:
			got = append(got, l)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for upstream writes")
		}
	}

	joined := strings.Join(got, "\n")
	require.Contains(t, joined, "FRANKENROUTER")
	require.Contains(t, joined, "IDENT")
	require.Contains(t, joined, "PSX:R1:")
	require.Contains(t, joined, "demand=Qs121")
}

func TestBroadcastRouterInfoCarriesIdentity(t *testing.T) {
	r := testRouter(t)
	s := NewClientSession(1, &net.TCPAddr{}, defaultOutboxDepth)
	s.SetIdentity("42", "Cptn")
	r.clientsMu.Lock()
	r.clients[1] = s
	r.clientsMu.Unlock()
	// Make this client a peer so broadcastRouterInfo's send path (which
	// only enqueues to peers) has somewhere to deliver the message.
	s.SetPeerRouter(true)

	r.broadcastRouterInfo()

	msg := <-s.Dequeue()
	payload, ok := msg.FRDPPayload()
	require.True(t, ok)
	f, err := ParseFRDP(payload)
	require.NoError(t, err)
	require.Equal(t, FRDPRouterInfo, f.Type)
	info, err := DecodeRouterInfo(f.Payload)
	require.NoError(t, err)
	require.NotEmpty(t, info.UUID)
	require.Equal(t, r.uuid, info.UUID)
	require.Contains(t, info.Connections, "Cptn")
}

func TestStatsReportsWriteTimingAndRates(t *testing.T) {
	r := testRouter(t)
	r.writeStats.Record(5 * time.Millisecond)
	r.writeStats.Record(15 * time.Millisecond)
	now := time.Now()
	r.rates.Sample(now) // first sample only sets the baseline
	r.rates.RecordIn()
	r.rates.RecordIn()
	r.rates.RecordOut()
	r.rates.Sample(now.Add(1 * time.Second))

	stats := r.Stats()
	require.Equal(t, 15.0, stats.WriteTimeMaxMs)
	require.InDelta(t, 10.0, stats.WriteTimeMeanMs, 0.001)
	require.InDelta(t, 2.0, stats.LinesInPerSec, 0.001)
	require.InDelta(t, 1.0, stats.LinesOutPerSec, 0.001)
}

func TestSetUpstreamTargetDisconnectsLiveConnection(t *testing.T) {
	r := testRouter(t)
	remote := attachUpstreamPipe(r)
	defer remote.Close()

	err := r.SetUpstreamTarget("example.invalid", 9000, "")
	require.NoError(t, err)

	buf := make([]byte, 1)
	_, readErr := remote.Read(buf)
	require.Error(t, readErr)

	target, connected := r.UpstreamTarget()
	require.False(t, connected, "the live connection was just torn down")
	require.Equal(t, "example.invalid", target.Host)
	require.Equal(t, 9000, target.Port)
}
