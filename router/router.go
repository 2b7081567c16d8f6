package router

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/macroflight/frankenrouter/internal/wire"
)

const (
	defaultOutboxDepth   = 1024
	authGraceWindow      = 250 * time.Millisecond
	frdpPingInterval     = 5 * time.Second
	frdpRouterInfoPeriod = 10 * time.Second
	statusInterval       = 1 * time.Second
	exitGrace            = 500 * time.Millisecond
)

// Router is the single router-context value from spec.md §9's "global
// mutable singleton" design note: the cache is mutated only from the
// core goroutine started by Run, and readers post events into coreCh.
// The client table is guarded by clientsMu: the accepting goroutine
// adds a session and that session's reader removes it. Filter flags,
// blocklist and upstream target live in RuntimeState, and peer state in
// PeerTracker, each behind its own mutex (see runtime.go/frdp.go).
type Router struct {
	cfg    *Config
	cat    *Catalogue
	cache  *Cache
	tables FilterTables
	state  *RuntimeState
	access *AccessTable

	metrics    *Metrics
	log        *logrus.Logger
	welcome    *WelcomeBuilder
	upstream   *UpstreamSession
	peers      *PeerTracker
	trafficLog *TrafficLog
	startWait  time.Duration

	writeStats *WriteTimeTracker
	rates      *RateTracker

	// uuid/startedAt are this router's own identity for ROUTERINFO/IDENT
	// broadcasts, per spec.md §4.5: derived once at startup so they stay
	// stable across reconnects.
	uuid      string
	startedAt time.Time

	clientsMu sync.RWMutex
	clients   map[uint64]*ClientSession
	nextID    uint64

	coreCh chan coreEvent
}

// New constructs a Router from static config and a loaded catalogue.
// trafficLog may be nil when config.log.traffic is false.
func New(cfg *Config, cat *Catalogue, metrics *Metrics, log *logrus.Logger, trafficLog *TrafficLog) (*Router, error) {
	access, err := NewAccessTable(cfg.Access)
	if err != nil {
		return nil, err
	}
	cache := NewCache(cat)
	state := NewRuntimeState(cfg)
	r := &Router{
		cfg:        cfg,
		cat:        cat,
		cache:      cache,
		tables:     DefaultFilterTables(),
		state:      state,
		access:     access,
		metrics:    metrics,
		log:        log,
		welcome:    NewWelcomeBuilder(cache, cat),
		upstream:   NewUpstreamSession(state, metrics, log),
		peers:      NewPeerTracker(),
		trafficLog: trafficLog,
		startWait:  DefaultStartWait,
		writeStats: NewWriteTimeTracker(),
		rates:      NewRateTracker(),
		uuid:       PeerUUID(hostIdentity(cfg.Identity.Router), cfg.Listen.Port),
		startedAt:  time.Now(),
		clients:    make(map[uint64]*ClientSession),
		coreCh:     make(chan coreEvent, 256),
	}
	return r, nil
}

// coreEvent is the tagged union of everything that crosses into the
// core goroutine, the Go rendering of spec.md §9's "break the cyclic
// reference" note: readers never call back into Router directly, they
// post an event and the core goroutine decides what happens.
type coreEvent interface{ isCoreEvent() }

type evClientAccepted struct {
	session  *ClientSession
	password string
}
type evClientLine struct {
	id  uint64
	raw string
}
type evClientClosed struct{ id uint64 }
type evUpstreamLine struct{ raw string }
type evUpstreamDisconnected struct{}
type evUpstreamConnected struct{}
type evStartWaitElapsed struct{ id uint64 }
type evCloseAfterDelay struct{ id uint64 }
type evFRDPTick struct{}

func (evClientAccepted) isCoreEvent()       {}
func (evClientLine) isCoreEvent()           {}
func (evClientClosed) isCoreEvent()         {}
func (evUpstreamLine) isCoreEvent()         {}
func (evUpstreamDisconnected) isCoreEvent() {}
func (evUpstreamConnected) isCoreEvent()    {}
func (evStartWaitElapsed) isCoreEvent()     {}
func (evCloseAfterDelay) isCoreEvent()      {}
func (evFRDPTick) isCoreEvent()             {}

// Run starts every task from spec.md §5's task list and blocks until
// ctx is cancelled or a task fails unrecoverably. It uses errgroup the
// way cmd/go-hub/cmd/serve.go's own goroutine fan-out does for the
// profiler/metrics endpoints, generalized to supervise every
// long-lived task instead of fire-and-forget logging goroutines.
func (r *Router) Run(ctx context.Context, listenAddr string) error {
	g, ctx := errgroup.WithContext(ctx)

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("router: listen %s: %w", listenAddr, err)
	}
	g.Go(func() error { return r.acceptLoop(ctx, ln) })

	g.Go(func() error {
		return r.upstream.Run(ctx,
			func(line string) { r.coreCh <- evUpstreamLine{raw: line} },
			func() { r.coreCh <- evUpstreamConnected{} },
			func() { r.coreCh <- evUpstreamDisconnected{} },
		)
	})

	if r.trafficLog != nil {
		g.Go(func() error { return r.trafficLog.Run(ctx) })
	}

	g.Go(func() error { return r.frdpTicker(ctx) })

	g.Go(func() error { return r.statusTicker(ctx) })

	if r.cfg.Listen.RESTAPIPort != 0 {
		g.Go(func() error { return r.serveHTTP(ctx) })
	}

	g.Go(func() error { return r.coreLoop(ctx) })

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	return g.Wait()
}

// serveHTTP runs the REST surface from spec.md §6, shutting down
// cleanly when ctx is cancelled, the same graceful-shutdown shape the
// teacher's cmd/go-hub/cmd/serve.go uses for its metrics/profiler
// endpoints (signal-triggered Close rather than leaking the listener).
func (r *Router) serveHTTP(ctx context.Context) error {
	addr := net.JoinHostPort("", strconv.Itoa(r.cfg.Listen.RESTAPIPort))
	srv := &http.Server{Addr: addr, Handler: NewHTTPAPI(r)}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), exitGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// statusTicker prints the operator status table at the configured
// cadence, per spec.md §4.7. It reads router state only through the
// same RLock-guarded accessors the HTTP API uses.
func (r *Router) statusTicker(ctx context.Context) error {
	t := time.NewTicker(statusInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.rates.Sample(time.Now())
			r.printStatus()
		}
	}
}

func (r *Router) printStatus() {
	target, _ := r.state.Upstream()
	rows := r.statusRows()
	WriteStatus(os.Stdout, StatusSnapshot{
		Now:            time.Now(),
		RouterName:     r.cfg.Identity.Router,
		UpstreamTarget: net.JoinHostPort(target.Host, strconv.Itoa(target.Port)),
		UpstreamState:  r.upstream.State(),
		Clients:        rows,
		SimSummary:     SimSummary(r.cache),
	})
}

func (r *Router) statusRows() []ClientStatusRow {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	out := make([]ClientStatusRow, 0, len(r.clients))
	for _, c := range r.clients {
		snap := c.Snapshot()
		out = append(out, ClientStatusRow{
			ID:          snap.ID,
			RemoteAddr:  snap.RemoteAddr.String(),
			Access:      snap.Access,
			State:       snap.State,
			DisplayName: snap.ClientProvidedName,
			LinesIn:     snap.LinesIn,
			LinesOut:    snap.LinesOut,
			QueueDepth:  c.QueueDepth(),
			QueueWarn:   c.OutboxBytes() > outboxHighWaterMark,
		})
	}
	return out
}

func (r *Router) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go r.handleAccept(ctx, conn)
	}
}

// handleAccept performs the brief AUTH grace window described in
// spec.md §4.6 ("a client matches a rule iff ... it has sent that
// password via FRDP AUTH before the welcome begins"): it gives a
// newly-opened socket a short window to send an AUTH line before
// access is evaluated, since a cooperating peer sends it "immediately
// after TCP open".
func (r *Router) handleAccept(ctx context.Context, conn net.Conn) {
	wc := wire.NewConn(conn)
	wc.SetReadDeadline(time.Now().Add(authGraceWindow))
	password := ""
	var firstLine string
	line, err := wc.ReadLine()
	wc.SetReadDeadline(time.Time{})
	if err == nil {
		s := string(line)
		msg := ParseMessage(s)
		if msg.IsFRDP() {
			if payload, ok := msg.FRDPPayload(); ok {
				if f, ferr := ParseFRDP(payload); ferr == nil && f.Type == FRDPAuth {
					password = f.Payload
				} else {
					firstLine = s
				}
			}
		} else {
			firstLine = s
		}
	}

	id := atomic.AddUint64(&r.nextID, 1)
	session := NewClientSession(id, conn.RemoteAddr(), defaultOutboxDepth)
	session.wc = wc

	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	if r.state.IsBlocked(host) {
		session.Close()
		conn.Close()
		return
	}
	level, _ := r.access.Evaluate(net.ParseIP(host), password)
	session.Access = level
	if firstLine != "" && IsPeerGreeting(firstLine) {
		session.SetPeerRouter(true)
	}

	if level == AccessBlocked {
		conn.Close()
		return
	}

	r.clientsMu.Lock()
	r.clients[id] = session
	r.clientsMu.Unlock()
	r.metrics.ClientsAccepted.Inc()
	r.metrics.ClientsOpen.Inc()

	go r.clientWriter(session)
	r.coreCh <- evClientAccepted{session: session, password: password}

	if firstLine != "" {
		r.coreCh <- evClientLine{id: id, raw: firstLine}
	}
	r.clientReader(ctx, session)
}

func (r *Router) clientReader(ctx context.Context, s *ClientSession) {
	defer func() {
		r.clientsMu.Lock()
		delete(r.clients, s.ID)
		r.clientsMu.Unlock()
		r.metrics.ClientsOpen.Dec()
		s.Close()
		r.coreCh <- evClientClosed{id: s.ID}
	}()
	for {
		line, err := s.wc.ReadLine()
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case r.coreCh <- evClientLine{id: s.ID, raw: string(line)}:
		}
	}
}

func (r *Router) clientWriter(s *ClientSession) {
	for {
		select {
		case <-s.Done():
			return
		case msg := <-s.Dequeue():
			start := time.Now()
			err := s.wc.WriteLineString(msg.String())
			r.writeStats.Record(time.Since(start))
			if err != nil {
				s.Close()
				return
			}
			s.AckSent(msg)
			r.metrics.LinesOut.Inc()
			r.rates.RecordOut()
			if r.trafficLog != nil {
				r.trafficLog.Record(DirOut, s.ID, msg.String(), time.Now())
			}
		}
	}
}

func (r *Router) frdpTicker(ctx context.Context) error {
	pingTicker := time.NewTicker(frdpPingInterval)
	defer pingTicker.Stop()
	infoTicker := time.NewTicker(frdpRouterInfoPeriod)
	defer infoTicker.Stop()
	limiter := rate.NewLimiter(rate.Every(frdpPingInterval), 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pingTicker.C:
			if limiter.Allow() {
				r.broadcastFRDPPing()
			}
		case <-infoTicker.C:
			r.broadcastRouterInfo()
		}
	}
}

func (r *Router) broadcastFRDPPing() {
	nonce := strconv.FormatInt(time.Now().UnixNano(), 36)
	r.peers.RecordPingSent(nonce, time.Now())
	msg := FRDPMessage{Version: frdpVersion(), Type: FRDPPing, Payload: nonce}.Encode()
	r.metrics.FRDPPings.Inc()
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	for _, c := range r.clients {
		if c.IsPeer() {
			c.Enqueue(msg)
		}
	}
}

func (r *Router) broadcastRouterInfo() {
	info := RouterInfo{
		RouterName:    r.cfg.Identity.Router,
		SimulatorName: r.cfg.Identity.Simulator,
		UUID:          r.uuid,
		UptimeSeconds: int64(time.Since(r.startedAt).Seconds()),
		Filters:       r.state.Filters(),
		Connections:   r.connectionNames(),
	}
	payload, err := EncodeRouterInfo(info)
	if err != nil {
		return
	}
	msg := FRDPMessage{Version: frdpVersion(), Type: FRDPRouterInfo, Payload: payload}.Encode()
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	for _, c := range r.clients {
		if c.IsPeer() {
			c.Enqueue(msg)
		}
	}
}

// coreLoop is the single logical writer from spec.md §5: the only
// goroutine that ever mutates cache, the client table's session
// contents, or consults Forward.
func (r *Router) coreLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-r.coreCh:
			r.handleEvent(ev)
		}
	}
}

func (r *Router) handleEvent(ev coreEvent) {
	switch e := ev.(type) {
	case evClientAccepted:
		r.beginWelcome(e.session)
	case evClientLine:
		r.onClientLine(e.id, e.raw)
	case evClientClosed:
		// nothing further to do; table entry already removed by the reader.
	case evUpstreamLine:
		r.onUpstreamLine(e.raw)
	case evUpstreamDisconnected:
		r.fanOutLoad1()
	case evUpstreamConnected:
		r.onUpstreamConnected()
	case evStartWaitElapsed:
		r.finishWelcome(e.id)
	case evCloseAfterDelay:
		if s := r.lookupClient(e.id); s != nil {
			s.Close()
		}
	}
}

func (r *Router) lookupClient(id uint64) *ClientSession {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	return r.clients[id]
}

func (r *Router) clientViews(exclude uint64) []ClientView {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	out := make([]ClientView, 0, len(r.clients))
	for id, c := range r.clients {
		if id == exclude {
			continue
		}
		out = append(out, c.View())
	}
	return out
}

func (r *Router) beginWelcome(s *ClientSession) {
	burst := r.welcome.LeadingBurst(s.ID)
	for _, m := range burst {
		s.Enqueue(m)
	}
	s.SetWaitingForStart(true)
	if err := r.upstream.Send(Signal(SigStart).String()); err == nil {
		r.upstream.MarkStartSent(time.Now())
	}
	id := s.ID
	time.AfterFunc(r.startWait, func() {
		r.coreCh <- evStartWaitElapsed{id: id}
	})
}

func (r *Router) finishWelcome(id uint64) {
	s := r.lookupClient(id)
	if s == nil || s.WelcomeSent {
		return
	}
	s.SetWaitingForStart(false)
	trailing := r.welcome.TrailingBurst(s.WelcomeKeywordSent)
	for _, m := range trailing {
		s.Enqueue(m)
	}
	pending := s.SetWelcomeSent()
	for _, m := range pending {
		s.Enqueue(m)
	}
}

func (r *Router) onClientLine(id uint64, raw string) {
	s := r.lookupClient(id)
	if s == nil {
		return
	}
	r.metrics.LinesIn.Inc()
	r.rates.RecordIn()
	if r.trafficLog != nil {
		r.trafficLog.Record(DirIn, id, raw, time.Now())
	}
	msg := ParseMessage(raw)
	s.RecordInbound(msg)

	if msg.IsFRDP() {
		r.handleFRDP(s, msg)
		return
	}
	if s.Access == AccessObserver && msg.Key != KeyDemand {
		return // rule 4.3: observer writes other than demand= are dropped.
	}

	in := ForwardInput{
		Msg:                   msg,
		Src:                   Source{Kind: SourceClient, ClientID: id},
		Cat:                   r.cat,
		Tables:                r.tables,
		Filters:               r.state.Filters(),
		Clients:               r.clientViews(0),
		CacheSnapshotNonDelta: r.cache.SnapshotNonDelta(),
	}
	d := Forward(in)
	r.applyDecision(d)
}

func (r *Router) onUpstreamLine(raw string) {
	msg := ParseMessage(raw)
	if msg.IsFRDP() {
		return // peer discovery never arrives from the authoritative upstream in practice; ignored defensively.
	}
	in := ForwardInput{
		Msg:     msg,
		Src:     Source{Kind: SourceUpstream},
		Cat:     r.cat,
		Tables:  r.tables,
		Filters: r.state.Filters(),
		Clients: r.clientViews(0),
	}
	d := Forward(in)
	r.applyDecision(d)
}

// onUpstreamConnected runs once per successful LIVE entry, per
// spec.md §4.4/§4.5: it announces this router's identity to whatever
// it just dialed, and re-sends every client's queued demand= entries
// ("do NOT clear the cache (stale values are better than no values
// for START-sensitive clients)" covers the cache; this covers the
// upstream-side demand registrations, which a fresh upstream session
// knows nothing about).
func (r *Router) onUpstreamConnected() {
	ident := FRDPMessage{
		Version: frdpVersion(),
		Type:    FRDPIdent,
		Payload: fmt.Sprintf("%s:%s:%s", r.cfg.Identity.Simulator, r.cfg.Identity.Router, r.uuid),
	}.Encode()
	_ = r.upstream.Send(ident.String())

	r.clientsMu.RLock()
	clients := make([]*ClientSession, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clientsMu.RUnlock()
	for _, c := range clients {
		for _, kw := range c.DemandedKeywords() {
			_ = r.upstream.Send(KeyVal(KeyDemand, kw).String())
		}
	}
}

func (r *Router) fanOutLoad1() {
	in := ForwardInput{
		Msg:     Signal(SigLoad1),
		Src:     Source{Kind: SourceUpstream},
		Cat:     r.cat,
		Tables:  r.tables,
		Filters: r.state.Filters(),
		Clients: r.clientViews(0),
	}
	d := Forward(in)
	r.applyDecision(d)
}

func (r *Router) applyDecision(d Decision) {
	for _, del := range d.Deliveries {
		switch del.Dest.Kind {
		case DestUpstream:
			_ = r.upstream.Send(del.Msg.String())
		case DestClient:
			s := r.lookupClient(del.Dest.ClientID)
			if s == nil {
				continue
			}
			if del.MarkWelcome != "" {
				s.MarkWelcomeKeyword(del.MarkWelcome)
			}
			if del.Pending {
				s.QueuePending(del.Msg)
				continue
			}
			if s.Enqueue(del.Msg) {
				r.metrics.QueueOverflowWarnings.Inc()
			}
		}
	}
	for _, eff := range d.Effects {
		r.applyEffect(eff)
	}
}

func (r *Router) applyEffect(e Effect) {
	switch e.Kind {
	case EffectCacheUpdate:
		r.cache.Put(e.Keyword, e.Value, time.Now())
	case EffectFilterDrop:
		switch e.Keyword {
		case "elevation":
			r.metrics.FilteredElevation.Inc()
		case "traffic":
			r.metrics.FilteredTraffic.Inc()
		case "flight_controls":
			r.metrics.FilteredFlightControls.Inc()
		}
	case EffectDemandAdd:
		if s := r.lookupClient(e.ClientID); s != nil {
			s.AddDemand(e.Keyword)
		}
	case EffectNameUpdate:
		if s := r.lookupClient(e.ClientID); s != nil {
			id, name := splitNamePayload(e.Value)
			s.SetIdentity(id, name)
		}
	case EffectToggleNolong:
		if s := r.lookupClient(e.ClientID); s != nil {
			s.ToggleNolong()
		}
	case EffectResetStartSentAt:
		r.upstream.MarkStartSent(time.Now())
	case EffectCloseClientAfterDelay:
		id := e.ClientID
		time.AfterFunc(exitGrace, func() {
			r.coreCh <- evCloseAfterDelay{id: id}
		})
	}
}

func splitNamePayload(v string) (id, name string) {
	if i := strings.IndexByte(v, ':'); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

func (r *Router) handleFRDP(s *ClientSession, msg Message) {
	payload, _ := msg.FRDPPayload()
	f, err := ParseFRDP(payload)
	if err != nil {
		r.log.WithError(err).Warn("malformed FRDP line")
		return
	}
	if !VersionsCompatible(frdpVersion(), f.Version) {
		r.log.WithFields(logrus.Fields{"peer": s.ID, "version": f.Version}).Warn("FRDP version mismatch")
		r.metrics.FRDPVersionMismatch.Inc()
	}
	switch f.Type {
	case FRDPPing:
		s.Enqueue(FRDPMessage{Version: frdpVersion(), Type: FRDPPong, Payload: f.Payload}.Encode())
	case FRDPPong:
		r.metrics.FRDPPongs.Inc()
		r.peers.RecordPong(f.Payload, time.Now())
		s.SetPeerRouter(true)
	case FRDPIdent:
		s.SetPeerRouter(true)
		parts := strings.SplitN(f.Payload, ":", 3)
		if len(parts) == 3 {
			s.PeerProtoVers = f.Version.String()
			s.PeerUUID = parts[2]
		}
	case FRDPRouterInfo:
		if info, err := DecodeRouterInfo(f.Payload); err == nil {
			r.peers.RecordRouterInfo(info, time.Now())
			r.rebroadcastToPeers(msg, s.ID)
		}
	case FRDPSharedInfo:
		if info, err := DecodeSharedInfo(f.Payload); err == nil {
			r.peers.RecordSharedInfo(s.PeerUUID, info)
			r.rebroadcastToPeers(msg, s.ID)
		}
	case FRDPClientInfo:
		// one-hop only, per spec.md §4.5: consumed here, never rebroadcast.
	}
}

// connectionNames renders the current client table for a ROUTERINFO
// broadcast's connections[] field, per spec.md §4.5.
func (r *Router) connectionNames() []string {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		snap := c.Snapshot()
		name := snap.ClientProvidedName
		if name == "" {
			name = snap.RemoteAddr.String()
		}
		out = append(out, name)
	}
	return out
}

func (r *Router) rebroadcastToPeers(msg Message, exclude uint64) {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	for id, c := range r.clients {
		if id == exclude || !c.IsPeer() {
			continue
		}
		c.Enqueue(msg)
	}
}

// The remaining methods implement RouterAPI for httpapi.go.

func (r *Router) Stats() HTTPStats {
	r.clientsMu.RLock()
	depths := make(map[uint64]int, len(r.clients))
	for id, c := range r.clients {
		depths[id] = c.QueueDepth()
	}
	r.clientsMu.RUnlock()

	wt := r.writeStats.Stats()
	linesIn, linesOut := r.rates.Rates()
	return HTTPStats{
		QueueDepths:       depths,
		WriteTimeMaxMs:    wt.Max,
		WriteTimeMedMs:    wt.Median,
		WriteTimeMeanMs:   wt.Mean,
		WriteTimeStdDevMs: wt.StdDev,
		LinesInPerSec:     linesIn,
		LinesOutPerSec:    linesOut,
	}
}

func (r *Router) ClientRows() []HTTPClientRow {
	r.clientsMu.RLock()
	defer r.clientsMu.RUnlock()
	out := make([]HTTPClientRow, 0, len(r.clients))
	for _, c := range r.clients {
		snap := c.Snapshot()
		ip, port, _ := net.SplitHostPort(snap.RemoteAddr.String())
		out = append(out, HTTPClientRow{
			ID:                        snap.ID,
			IP:                        ip,
			Port:                      port,
			DisplayName:               snap.ClientProvidedName,
			MessagesSent:              snap.LinesOut,
			MessagesReceived:          snap.LinesIn,
			ClientProvidedID:          snap.ClientProvidedID,
			ClientProvidedDisplayName: snap.ClientProvidedName,
		})
	}
	return out
}

func (r *Router) DisconnectClient(id uint64) bool {
	s := r.lookupClient(id)
	if s == nil {
		return false
	}
	s.Close()
	return true
}

func (r *Router) RouterInfoSnapshot() map[string]routerInfoEntry { return r.peers.RouterInfoSnapshot() }
func (r *Router) SharedInfoSnapshot() map[string]SharedInfo      { return r.peers.SharedInfoSnapshot() }
func (r *Router) Filters() FilterFlags                           { return r.state.Filters() }
func (r *Router) SetElevationFilter(on bool)                     { r.state.SetElevationFilter(on) }
func (r *Router) SetTrafficFilter(on bool)                       { r.state.SetTrafficFilter(on) }
func (r *Router) Blocklist() []string                            { return r.state.Blocklist() }
func (r *Router) BlockAdd(ip string)                             { r.state.BlockAdd(ip) }
func (r *Router) BlockRemove(ip string)                          { r.state.BlockRemove(ip) }

func (r *Router) UpstreamTarget() (UpstreamConfig, bool) { return r.state.Upstream() }

func (r *Router) SetUpstreamTarget(host string, port int, password string) error {
	if host == "" || port <= 0 {
		return fmt.Errorf("router: invalid upstream target %s:%d", host, port)
	}
	r.state.SetUpstream(UpstreamConfig{Host: host, Port: port, Password: password})
	r.upstream.Disconnect()
	return nil
}

// VPilotPrint forwards an operator-issued message to upstream as a
// synthesized variable update, matching the teacher's pattern of
// exposing otherwise-internal protocol writes through a thin REST
// wrapper (see hub/plugins/myip/myip.go's cmdIP for the same
// HTTP/command-to-protocol-write shape, generalized from chat text to
// a wire line).
func (r *Router) VPilotPrint(message string) error {
	return r.upstream.Send(KeyVal("vPilotPrint", message).String())
}

var _ RouterAPI = (*Router)(nil)
