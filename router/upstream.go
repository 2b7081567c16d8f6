package router

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blang/semver"
	"github.com/sirupsen/logrus"

	"github.com/macroflight/frankenrouter/internal/wire"
	"github.com/macroflight/frankenrouter/version"
)

// UpstreamState is the upstream connection state machine from
// spec.md §4.4.
type UpstreamState int

const (
	UpstreamDisconnected UpstreamState = iota
	UpstreamConnecting
	UpstreamAuthing
	UpstreamLive
)

func (s UpstreamState) String() string {
	switch s {
	case UpstreamConnecting:
		return "CONNECTING"
	case UpstreamAuthing:
		return "AUTHING"
	case UpstreamLive:
		return "LIVE"
	default:
		return "DISCONNECTED"
	}
}

const (
	upstreamBackoffStart = 1 * time.Second
	upstreamBackoffCap   = 30 * time.Second
)

// UpstreamLineHandler is called once per line received from upstream,
// from the UpstreamSession's own reader loop. It must not block: the
// core routing goroutine is the only place forwarding decisions and
// state mutation happen, so implementations hand the line off over a
// channel (see Router.coreCh in router.go) the way a client
// session's reader does.
type UpstreamLineHandler func(line string)

// UpstreamSession is the single outbound-initiated connection to the
// authoritative server or a peer router, per spec.md §3/§4.4. Its
// shape — dial, handshake, readLoop, supervised reconnect with backoff
// — is grounded on adc/client/client2hub.go's DialHub/HubHandshake
// pattern, generalized from a one-shot ADC handshake to an infinite
// reconnect loop since spec.md requires the router survive upstream
// restarts indefinitely.
type UpstreamSession struct {
	state     *RuntimeState
	metrics   *Metrics
	log       *logrus.Logger

	connMu      sync.Mutex
	conn        *wire.Conn
	stateVal    int32 // UpstreamState, accessed atomically: written from Run's goroutine, read from the status ticker
	startSentAt time.Time
}

func NewUpstreamSession(state *RuntimeState, metrics *Metrics, log *logrus.Logger) *UpstreamSession {
	return &UpstreamSession{state: state, metrics: metrics, log: log}
}

// Run drives the reconnect loop until ctx is cancelled. onLine is
// invoked for every line received once LIVE; onConnect fires once per
// successful LIVE entry, before readLoop starts, so the caller can
// send an outbound IDENT and re-send any queued demand= entries per
// spec.md §4.4 ("On entry to LIVE: if any client has queued demand=
// entries, re-send them"); onDisconnect is invoked once per outage (when
// a LIVE connection is lost, or on the first failed dial or handshake
// since startup or since the last LIVE period) so the caller can fan
// out load1 to clients, per spec.md §4.4's "LIVE -> EOF/error ->
// DISCONNECTED (fan out load1 to all clients)". Further failed redials
// within the same outage do not invoke it again.
func (u *UpstreamSession) Run(ctx context.Context, onLine UpstreamLineHandler, onConnect func(), onDisconnect func()) error {
	backoff := upstreamBackoffStart
	// lossAnnounced records that onDisconnect already ran for the
	// current outage.
	lossAnnounced := false
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		target, _ := u.state.Upstream()
		u.setState(UpstreamConnecting)
		u.metrics.UpstreamReconnects.Inc()

		addr := net.JoinHostPort(target.Host, strconv.Itoa(target.Port))
		conn, err := wire.Dial(ctx, addr)
		if err != nil {
			u.log.WithError(err).WithField("addr", addr).Warn("upstream dial failed")
			u.setState(UpstreamDisconnected)
			if !lossAnnounced {
				onDisconnect()
				lossAnnounced = true
			}
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}

		if err := u.handshake(conn, target); err != nil {
			u.log.WithError(err).Warn("upstream handshake failed")
			conn.Close()
			u.setState(UpstreamDisconnected)
			if !lossAnnounced {
				onDisconnect()
				lossAnnounced = true
			}
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}

		u.connMu.Lock()
		u.conn = conn
		u.connMu.Unlock()
		u.setState(UpstreamLive)
		u.state.SetConnected(true)
		u.metrics.UpstreamConnected.Set(1)
		backoff = upstreamBackoffStart
		lossAnnounced = false
		onConnect()

		err = u.readLoop(ctx, conn, onLine)
		conn.Close()
		u.connMu.Lock()
		u.conn = nil
		u.connMu.Unlock()
		u.state.SetConnected(false)
		u.metrics.UpstreamConnected.Set(0)
		u.setState(UpstreamDisconnected)
		onDisconnect()
		lossAnnounced = true
		if err != nil {
			u.log.WithError(err).Info("upstream connection lost")
		}

		if !sleepCtx(ctx, backoff) {
			return nil
		}
		backoff = nextBackoff(backoff)
	}
}

// handshake sends the password as an FRDP AUTH line when one is
// configured. It does not wait for or validate any welcome line from
// upstream: the session goes LIVE as soon as this returns, and the
// upstream's welcome arrives through readLoop like any other traffic.
// It is a thin wrapper kept separate from readLoop for testability.
func (u *UpstreamSession) handshake(conn *wire.Conn, target UpstreamConfig) error {
	u.setState(UpstreamAuthing)
	if target.Password != "" {
		f := FRDPMessage{Version: frdpVersion(), Type: FRDPAuth, Payload: target.Password}
		if err := conn.WriteLineString(f.Encode().String()); err != nil {
			return fmt.Errorf("router: send upstream AUTH: %w", err)
		}
	}
	return nil
}

func (u *UpstreamSession) readLoop(ctx context.Context, conn *wire.Conn, onLine UpstreamLineHandler) error {
	type result struct {
		line []byte
		err  error
	}
	lines := make(chan result, 1)
	go func() {
		for {
			line, err := conn.ReadLine()
			lines <- result{line: line, err: err}
			if err != nil {
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-lines:
			if r.err != nil {
				return r.err
			}
			onLine(string(r.line))
		}
	}
}

// Send writes a line to the live upstream connection. Returns an error
// if the upstream is not currently connected.
func (u *UpstreamSession) Send(line string) error {
	u.connMu.Lock()
	conn := u.conn
	u.connMu.Unlock()
	if conn == nil {
		return fmt.Errorf("router: upstream not connected")
	}
	return conn.WriteLineString(line)
}

// Disconnect force-closes the live upstream connection, if any, so
// Run's reconnect loop tears it down immediately and redials against
// whatever target u.state.Upstream() now returns, per spec.md §4.4's
// switchover step ("close current connection; reconnect loop picks up
// the new target on next dial"). A no-op when not currently LIVE.
func (u *UpstreamSession) Disconnect() {
	u.connMu.Lock()
	conn := u.conn
	u.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (u *UpstreamSession) State() UpstreamState {
	return UpstreamState(atomic.LoadInt32(&u.stateVal))
}

func (u *UpstreamSession) setState(s UpstreamState) { atomic.StoreInt32(&u.stateVal, int32(s)) }

func (u *UpstreamSession) MarkStartSent(now time.Time) { u.startSentAt = now }

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > upstreamBackoffCap {
		return upstreamBackoffCap
	}
	return next
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func frdpVersion() semver.Version { return semver.MustParse(version.FRDPVersion) }
