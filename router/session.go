package router

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/macroflight/frankenrouter/internal/wire"
)

// SessionState is the client session state machine from spec.md §4.3.
type SessionState int

const (
	StateConnected SessionState = iota
	StateAccepted
	StateWelcoming
	StateReady
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAccepted:
		return "ACCEPTED"
	case StateWelcoming:
		return "WELCOMING"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// outboxHighWaterMark is the default buffered-bytes warning threshold
// from spec.md §5 ("warn at 1 MB buffered, never kill").
const outboxHighWaterMark = 1 << 20

// ClientSession is the per-downstream-connection record from
// spec.md §3. Per the spec.md §9 design note ("break the cycle by
// keying sessions by numeric id"), it holds only its own id and a
// channel for enqueueing outbound lines — never a pointer back to the
// router. The router's client table is the only thing that maps id to
// session.
type ClientSession struct {
	ID         uint64
	RemoteAddr net.Addr
	Access     AccessLevel

	// wc is the line-framed connection the router's reader/writer
	// goroutines use. Set once at session creation, never reassigned,
	// so reading it from either goroutine needs no further locking.
	wc *wire.Conn

	mu sync.Mutex

	State                SessionState
	WelcomeSent          bool
	WaitingForStart      bool
	Nolong               bool
	IsPeerRouter         bool
	WelcomeKeywordsSent  map[string]struct{}
	PendingMessages      []Message
	Demanded             map[string]struct{}
	ClientProvidedID     string
	ClientProvidedName   string

	// Peer-router bookkeeping, per spec.md §3 "for peer-router sessions".
	PeerUUID      string
	PeerProtoVers string
	LastPongAt    time.Time

	LinesIn, LinesOut   uint64
	BytesIn, BytesOut   uint64

	outbox      chan Message
	outboxBytes int64

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClientSession constructs a session in the CONNECTED state with a
// bounded outbound queue. outboxSize is the number of messages the
// channel buffers before writers start blocking the core goroutine's
// send — the byte-based high-water mark is tracked separately and only
// ever produces a warning, per spec.md §5's backpressure policy.
func NewClientSession(id uint64, addr net.Addr, outboxSize int) *ClientSession {
	return &ClientSession{
		ID:                  id,
		RemoteAddr:           addr,
		State:                StateConnected,
		WelcomeKeywordsSent:  make(map[string]struct{}),
		Demanded:             make(map[string]struct{}),
		outbox:               make(chan Message, outboxSize),
		closed:               make(chan struct{}),
	}
}

// View projects the fields Forward needs into a ClientView, taken
// under the session's own lock so concurrent counters/flag updates
// from the writer goroutine don't race the core goroutine's read.
func (s *ClientSession) View() ClientView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ClientView{
		ID:              s.ID,
		Access:          s.Access,
		IsPeer:          s.IsPeerRouter,
		Nolong:          s.Nolong,
		WaitingForStart: s.WaitingForStart,
		WelcomeSent:     s.WelcomeSent,
	}
}

// MarkWelcomeKeyword records that keyword has already been emitted as
// part of this session's welcome burst.
func (s *ClientSession) MarkWelcomeKeyword(keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WelcomeKeywordsSent[keyword] = struct{}{}
}

// WelcomeKeywordSent reports whether keyword was already sent during
// welcome.
func (s *ClientSession) WelcomeKeywordSent(keyword string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.WelcomeKeywordsSent[keyword]
	return ok
}

// SetPeerRouter marks the session as a peer router, per spec.md §4.5.
// Guarded by the session mutex because it is written from the core
// goroutine (on FRDP IDENT/PONG) but read from the FRDP ticker
// goroutine's broadcast loops.
func (s *ClientSession) SetPeerRouter(v bool) {
	s.mu.Lock()
	s.IsPeerRouter = v
	s.mu.Unlock()
}

// IsPeer reports the current peer-router flag.
func (s *ClientSession) IsPeer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.IsPeerRouter
}

// SetWaitingForStart toggles the welcome-window flag.
func (s *ClientSession) SetWaitingForStart(v bool) {
	s.mu.Lock()
	s.WaitingForStart = v
	s.mu.Unlock()
}

// SetWelcomeSent marks the welcome burst complete and returns the
// queued pending messages to flush, per spec.md §4.3 step 11.
func (s *ClientSession) SetWelcomeSent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WelcomeSent = true
	s.State = StateReady
	pending := s.PendingMessages
	s.PendingMessages = nil
	return pending
}

// QueuePending appends a message that arrived before the welcome
// finished, per the invariant in spec.md §4.3.
func (s *ClientSession) QueuePending(m Message) {
	s.mu.Lock()
	s.PendingMessages = append(s.PendingMessages, m)
	s.mu.Unlock()
}

// ToggleNolong flips the nolong flag, per spec.md §4.2 rule 4.
func (s *ClientSession) ToggleNolong() {
	s.mu.Lock()
	s.Nolong = !s.Nolong
	s.mu.Unlock()
}

// AddDemand records a demanded keyword.
func (s *ClientSession) AddDemand(keyword string) {
	s.mu.Lock()
	s.Demanded[keyword] = struct{}{}
	s.mu.Unlock()
}

// DemandedKeywords returns a snapshot of demanded keywords.
func (s *ClientSession) DemandedKeywords() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Demanded))
	for k := range s.Demanded {
		out = append(out, k)
	}
	return out
}

// SetIdentity records name=ID:NAME from the client, per spec.md §3.
func (s *ClientSession) SetIdentity(id, name string) {
	s.mu.Lock()
	s.ClientProvidedID = id
	s.ClientProvidedName = name
	s.mu.Unlock()
}

// Enqueue places a message on the session's outbound queue. The
// channel is generously buffered; once it holds outboxSize messages,
// Enqueue blocks until the writer goroutine takes one. It reports
// whether the tracked byte backlog is above the high-water mark so the
// caller can surface a status warning; the message itself is never
// dropped while the session is open. On a closed session Enqueue
// discards the message and returns false.
func (s *ClientSession) Enqueue(m Message) (overHighWater bool) {
	select {
	case <-s.closed:
		return false
	default:
	}
	s.outbox <- m
	n := int64(len(m.String())) + 2
	newTotal := atomic.AddInt64(&s.outboxBytes, n)
	return newTotal > outboxHighWaterMark
}

// Dequeue is read by the session's writer goroutine.
func (s *ClientSession) Dequeue() <-chan Message { return s.outbox }

// AckSent reduces the tracked outbox byte count after a write
// completes, called by the writer goroutine.
func (s *ClientSession) AckSent(m Message) {
	n := int64(len(m.String())) + 2
	atomic.AddInt64(&s.outboxBytes, -n)
	s.mu.Lock()
	s.LinesOut++
	s.BytesOut += uint64(n)
	s.mu.Unlock()
}

// RecordInbound updates inbound counters, called by the reader
// goroutine.
func (s *ClientSession) RecordInbound(m Message) {
	s.mu.Lock()
	s.LinesIn++
	s.BytesIn += uint64(len(m.String())) + 2
	s.mu.Unlock()
}

// QueueDepth returns the number of outbound messages queued but not
// yet written.
func (s *ClientSession) QueueDepth() int { return len(s.outbox) }

// SessionSnapshot is a point-in-time copy of the counters and identity
// fields the status table and HTTP client-rows endpoint report. Taking
// it under the session lock once, rather than reading each field
// directly, avoids racing the reader/writer goroutines that mutate
// LinesIn/LinesOut/ClientProvidedName concurrently.
type SessionSnapshot struct {
	ID                 uint64
	RemoteAddr         net.Addr
	Access             AccessLevel
	State              SessionState
	ClientProvidedID   string
	ClientProvidedName string
	LinesIn, LinesOut  uint64
}

// Snapshot returns the session's current counters and identity under
// lock.
func (s *ClientSession) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:                 s.ID,
		RemoteAddr:         s.RemoteAddr,
		Access:             s.Access,
		State:              s.State,
		ClientProvidedID:   s.ClientProvidedID,
		ClientProvidedName: s.ClientProvidedName,
		LinesIn:            s.LinesIn,
		LinesOut:           s.LinesOut,
	}
}

// OutboxBytes returns the tracked outbound byte backlog.
func (s *ClientSession) OutboxBytes() int64 {
	return atomic.LoadInt64(&s.outboxBytes)
}

// Close marks the session closed, discarding anything still queued,
// per spec.md §5's cancellation policy. Safe to call more than once.
func (s *ClientSession) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.State = StateClosed
		s.mu.Unlock()
		close(s.closed)
	})
}

// Done reports the session's closed channel, for select-based
// goroutine shutdown.
func (s *ClientSession) Done() <-chan struct{} { return s.closed }
