package router

// SourceKind distinguishes the two possible origins of a message.
type SourceKind int

const (
	SourceUpstream SourceKind = iota
	SourceClient
)

// Source identifies where a message came from.
type Source struct {
	Kind     SourceKind
	ClientID uint64 // valid when Kind == SourceClient
}

// DestKind distinguishes the two possible delivery targets.
type DestKind int

const (
	DestUpstream DestKind = iota
	DestClient
)

// Destination identifies where a message should be delivered.
type Destination struct {
	Kind     DestKind
	ClientID uint64 // valid when Kind == DestClient
}

// Delivery is one (destination, message) pair the rules function
// produced.
type Delivery struct {
	Dest Destination
	Msg  Message
	// Pending marks that, per the welcome-buffering invariant, this
	// message should be appended to the destination client's
	// pending_messages queue instead of written immediately.
	Pending bool
	// MarkWelcome, when non-empty, names the keyword that should be
	// recorded in the destination client's welcome_keywords_sent set
	// because this delivery is itself part of its welcome sequence.
	MarkWelcome string
}

// EffectKind enumerates the session-state mutations a forwarding
// decision can require beyond message delivery.
type EffectKind int

const (
	EffectCacheUpdate EffectKind = iota
	EffectFilterDrop
	EffectDemandAdd
	EffectNameUpdate
	EffectToggleNolong
	EffectResetStartSentAt
	EffectCloseClientAfterDelay
)

// Effect is one state mutation the caller must apply after consuming
// Deliveries. Keeping these as data (rather than having Forward call
// back into the router) is what keeps Forward a pure function.
type Effect struct {
	Kind     EffectKind
	ClientID uint64
	Keyword  string
	Value    string
}

// AccessLevel is the outcome of access-control evaluation, per
// spec.md §4.6.
type AccessLevel int

const (
	AccessBlocked AccessLevel = iota
	AccessObserver
	AccessFull
)

func (l AccessLevel) String() string {
	switch l {
	case AccessBlocked:
		return "blocked"
	case AccessObserver:
		return "observer"
	case AccessFull:
		return "full"
	default:
		return "unknown"
	}
}

// FilterFlags are the three live-toggleable content filters from
// spec.md §4.2/§6. They are stored in RuntimeState, changed there by
// the HTTP API under its mutex, and passed to Forward as a plain value
// copied at decision time.
type FilterFlags struct {
	Elevation      bool
	Traffic        bool
	FlightControls bool
}

// ClientView is the read-only projection of a ClientSession that the
// rules function needs to make a delivery decision. It deliberately
// excludes everything the session owns that forwarding doesn't need
// (counters, the outbound channel itself), keeping Forward decoupled
// from the concrete session type.
type ClientView struct {
	ID              uint64
	Access          AccessLevel
	IsPeer          bool
	Nolong          bool
	WaitingForStart bool
	WelcomeSent     bool
}

// ForwardInput bundles everything Forward needs to make one decision.
type ForwardInput struct {
	Msg                   Message
	Src                   Source
	Cat                   *Catalogue
	Tables                FilterTables
	Filters               FilterFlags
	Clients               []ClientView
	CacheSnapshotNonDelta []CacheEntry // only consulted for the "bang" signal
}

// Decision is what Forward returns: the deliveries to make, the
// session-state effects to apply, and whether the message was an FRDP
// line that belongs to the peer-discovery engine instead.
type Decision struct {
	Deliveries []Delivery
	Effects    []Effect
	FRDP       bool
}
