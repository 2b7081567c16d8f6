package router

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blang/semver"
	"github.com/google/uuid"
)

// FRDPType enumerates the peer-discovery message types carried inside
// addon=FRANKENROUTER:<version>:<TYPE>:<payload> lines, per spec.md
// §4.5.
type FRDPType string

const (
	FRDPAuth       FRDPType = "AUTH"
	FRDPIdent      FRDPType = "IDENT"
	FRDPPing       FRDPType = "PING"
	FRDPPong       FRDPType = "PONG"
	FRDPRouterInfo FRDPType = "ROUTERINFO"
	FRDPClientInfo FRDPType = "CLIENTINFO"
	FRDPSharedInfo FRDPType = "SHAREDINFO"
)

// FRDPMessage is one parsed peer-discovery line.
type FRDPMessage struct {
	Version semver.Version
	Type    FRDPType
	Payload string
}

// ParseFRDP parses the "<version>:<TYPE>:<payload>" tail returned by
// Message.FRDPPayload.
func ParseFRDP(tail string) (FRDPMessage, error) {
	parts := strings.SplitN(tail, ":", 3)
	if len(parts) < 2 {
		return FRDPMessage{}, fmt.Errorf("router: malformed FRDP line %q", tail)
	}
	v, err := semver.Parse(parts[0])
	if err != nil {
		return FRDPMessage{}, fmt.Errorf("router: malformed FRDP version %q: %w", parts[0], err)
	}
	payload := ""
	if len(parts) == 3 {
		payload = parts[2]
	}
	return FRDPMessage{Version: v, Type: FRDPType(parts[1]), Payload: payload}, nil
}

// Encode renders an FRDP message back to a full addon= line.
func (m FRDPMessage) Encode() Message {
	return KeyVal(KeyAddon, fmt.Sprintf("%s%s:%s:%s", FRDPPrefix, m.Version.String(), m.Type, m.Payload))
}

// RouterInfo is the JSON payload carried by ROUTERINFO broadcasts, per
// spec.md §4.5.
type RouterInfo struct {
	RouterName    string   `json:"router_name"`
	SimulatorName string   `json:"simulator_name"`
	UUID          string   `json:"uuid"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Filters       FilterFlags `json:"filters"`
	Connections   []string `json:"connections"`
}

// SharedInfo is the seat-assignment payload for shared-cockpit setups.
type SharedInfo struct {
	Seats map[string]string `json:"seats"`
}

// ClientInfo carries an externally-sourced display name, e.g. from a
// window-title sniffer, per spec.md §4.5. It is one-hop only.
type ClientInfo struct {
	ClientID    string `json:"client_id"`
	DisplayName string `json:"display_name"`
}

// PeerUUID derives a stable per-router UUID from the host identity and
// listen port, per spec.md §4.5 ("derived once at startup from host-id
// + listen-port so it is stable across restarts"). uuid.NewSHA1 over a
// fixed namespace gives a deterministic, collision-resistant value
// without persisting anything to disk.
var frdpNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("frankenrouter"))

func PeerUUID(hostID string, listenPort int) string {
	name := fmt.Sprintf("%s:%d", hostID, listenPort)
	return uuid.NewSHA1(frdpNamespace, []byte(name)).String()
}

// peerRTT tracks one outstanding ping.
type peerRTT struct {
	sentAt time.Time
}

// PeerTracker holds everything the FRDP engine learns about peer
// routers: outstanding pings, last-seen ROUTERINFO per UUID, and
// measured RTTs. It is read by the HTTP API (/api/routerinfo,
// /api/sharedinfo) and mutated by both the FRDP ticker goroutine (pings
// sent) and the core goroutine (PONG, ROUTERINFO and SHAREDINFO
// received), so it carries its own lock rather than routing through the
// core goroutine's channel — justified because FRDP state is purely
// additive/overwriting and never feeds a forwarding decision.
type PeerTracker struct {
	mu          sync.RWMutex
	outstanding map[string]peerRTT
	lastRTT     map[string]time.Duration
	routerInfo  map[string]routerInfoEntry
	sharedInfo  map[string]SharedInfo
}

type routerInfoEntry struct {
	Info     RouterInfo
	Received time.Time
}

func NewPeerTracker() *PeerTracker {
	return &PeerTracker{
		outstanding: make(map[string]peerRTT),
		lastRTT:     make(map[string]time.Duration),
		routerInfo:  make(map[string]routerInfoEntry),
		sharedInfo:  make(map[string]SharedInfo),
	}
}

// RecordPingSent notes that a ping with nonce id was sent just now.
func (p *PeerTracker) RecordPingSent(id string, now time.Time) {
	p.mu.Lock()
	p.outstanding[id] = peerRTT{sentAt: now}
	p.mu.Unlock()
}

// RecordPong resolves an outstanding ping and records its RTT. Returns
// false if no matching ping was outstanding (a stray or duplicate
// PONG).
func (p *PeerTracker) RecordPong(id string, now time.Time) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sent, ok := p.outstanding[id]
	if !ok {
		return 0, false
	}
	delete(p.outstanding, id)
	rtt := now.Sub(sent.sentAt)
	p.lastRTT[id] = rtt
	return rtt, true
}

// RecordRouterInfo stores the latest ROUTERINFO for its UUID,
// overwriting any stale entry, per spec.md §4.5 ("keyed by UUID so
// duplicates from indirect paths overwrite").
func (p *PeerTracker) RecordRouterInfo(info RouterInfo, now time.Time) {
	p.mu.Lock()
	p.routerInfo[info.UUID] = routerInfoEntry{Info: info, Received: now}
	p.mu.Unlock()
}

// RouterInfoSnapshot returns a copy of the UUID -> RouterInfo map for
// the /api/routerinfo handler.
func (p *PeerTracker) RouterInfoSnapshot() map[string]routerInfoEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]routerInfoEntry, len(p.routerInfo))
	for k, v := range p.routerInfo {
		out[k] = v
	}
	return out
}

func (p *PeerTracker) RecordSharedInfo(routerUUID string, info SharedInfo) {
	p.mu.Lock()
	p.sharedInfo[routerUUID] = info
	p.mu.Unlock()
}

func (p *PeerTracker) SharedInfoSnapshot() map[string]SharedInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]SharedInfo, len(p.sharedInfo))
	for k, v := range p.sharedInfo {
		out[k] = v
	}
	return out
}

// IsPeerGreeting reports whether a client's opening "name=" line
// identifies it as a frankenrouter peer, per spec.md §4.5 ("A
// connection is declared peer when either the first line contains
// name=...FRANKEN.PY frankenrouter... OR a PONG is received").
func IsPeerGreeting(firstLine string) bool {
	return strings.Contains(firstLine, "FRANKEN.PY") && strings.Contains(strings.ToLower(firstLine), "frankenrouter")
}

// VersionsCompatible reports whether a peer's advertised FRDP version
// is close enough to interoperate. Per spec.md §4.5 ("Version
// mismatch: log loudly; continue; do not crash"), this never blocks
// the connection — it only tells the caller whether to log a warning.
func VersionsCompatible(mine, theirs semver.Version) bool {
	return mine.Major == theirs.Major
}

// hostIdentity derives a short stable string (the first 8 bytes of the
// SHA-1 of seed, in hex), used as the host-id input to PeerUUID. It
// reads no machine-specific data such as network interfaces; New
// passes [identity].router from config as the seed.
func hostIdentity(seed string) string {
	sum := sha1.Sum([]byte(seed))
	return fmt.Sprintf("%x", sum[:8])
}

// EncodeRouterInfo/DecodeRouterInfo, EncodeSharedInfo/DecodeSharedInfo
// and EncodeClientInfo/DecodeClientInfo wrap the JSON payloads carried
// by their respective FRDP message types.

func EncodeRouterInfo(r RouterInfo) (string, error) {
	b, err := json.Marshal(r)
	return string(b), err
}

func DecodeRouterInfo(payload string) (RouterInfo, error) {
	var r RouterInfo
	err := json.Unmarshal([]byte(payload), &r)
	return r, err
}

func EncodeSharedInfo(s SharedInfo) (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

func DecodeSharedInfo(payload string) (SharedInfo, error) {
	var s SharedInfo
	err := json.Unmarshal([]byte(payload), &s)
	return s, err
}

func EncodeClientInfo(c ClientInfo) (string, error) {
	b, err := json.Marshal(c)
	return string(b), err
}

func DecodeClientInfo(payload string) (ClientInfo, error) {
	var c ClientInfo
	err := json.Unmarshal([]byte(payload), &c)
	return c, err
}
