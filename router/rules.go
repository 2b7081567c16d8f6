package router

// Forward is the router's single pure decision function, per spec.md
// §4.2: given a parsed message, its source, and the current session
// table, it returns every (destination, message) pair to deliver plus
// the session-state effects that decision implies (cache writes,
// counters, flag toggles). Forward never performs I/O and never
// mutates its inputs; the core routing goroutine applies the returned
// Deliveries and Effects. This is what makes the forwarding logic
// unit-testable in isolation (spec.md §2, §8's referential-transparency
// property) without standing up real sockets.
func Forward(in ForwardInput) Decision {
	msg := in.Msg

	if msg.IsFRDP() {
		// Rule 1: FRDP lines are never forwarded as ordinary traffic;
		// they are handed to the peer-discovery engine by the caller.
		return Decision{FRDP: true}
	}

	switch in.Src.Kind {
	case SourceClient:
		return forwardFromClient(in)
	case SourceUpstream:
		return forwardFromUpstream(in)
	}
	return Decision{}
}

func forwardFromClient(in ForwardInput) Decision {
	msg := in.Msg
	sender := in.Src.ClientID

	if msg.Kind == KindSignal {
		return forwardSignalFromClient(in)
	}

	// Rule 2.
	switch msg.Key {
	case KeyDemand:
		return Decision{
			Deliveries: []Delivery{{Dest: destUpstream(), Msg: msg}},
			Effects:    []Effect{{Kind: EffectDemandAdd, ClientID: sender, Keyword: msg.Value}},
		}
	case KeyName:
		d := Decision{
			Deliveries: []Delivery{{Dest: destUpstream(), Msg: msg}},
			Effects:    []Effect{{Kind: EffectNameUpdate, ClientID: sender, Value: msg.Value}},
		}
		for _, c := range in.Clients {
			if c.ID == sender {
				continue
			}
			d.Deliveries = append(d.Deliveries, Delivery{Dest: destClient(c.ID), Msg: msg})
		}
		return d
	default:
		d := Decision{Deliveries: []Delivery{{Dest: destUpstream(), Msg: msg}}}
		for _, c := range in.Clients {
			if c.ID == sender {
				continue
			}
			if !clientAllowsClientTraffic(c) {
				continue
			}
			d.Deliveries = append(d.Deliveries, deliverToClient(c, msg))
		}
		return d
	}
}

func forwardSignalFromClient(in ForwardInput) Decision {
	msg := in.Msg
	sender := in.Src.ClientID

	switch msg.Value {
	case SigBang:
		// Rule 4: synthesize a reply of every non-DELTA cache entry, in
		// catalogue order. Never forwarded further.
		d := Decision{}
		for _, e := range in.CacheSnapshotNonDelta {
			d.Deliveries = append(d.Deliveries, Delivery{
				Dest: destClient(sender),
				Msg:  KeyVal(e.Keyword, e.Value),
			})
		}
		return d
	case SigStart:
		return Decision{
			Deliveries: []Delivery{{Dest: destUpstream(), Msg: msg}},
			Effects:    []Effect{{Kind: EffectResetStartSentAt}},
		}
	case SigExit:
		return Decision{
			Deliveries: []Delivery{{Dest: destClient(sender), Msg: Signal(SigExit)}},
			Effects:    []Effect{{Kind: EffectCloseClientAfterDelay, ClientID: sender}},
		}
	case SigAgain:
		return Decision{Deliveries: []Delivery{{Dest: destUpstream(), Msg: msg}}}
	case SigNolong:
		return Decision{Effects: []Effect{{Kind: EffectToggleNolong, ClientID: sender}}}
	case SigQuit:
		// Open question in spec.md §9: forward to the other clients and
		// never upstream. There is no configuration option that sends it
		// upstream.
		d := Decision{}
		for _, c := range in.Clients {
			if c.ID == sender {
				continue
			}
			d.Deliveries = append(d.Deliveries, Delivery{Dest: destClient(c.ID), Msg: msg})
		}
		return d
	default:
		// Unrecognized signal from a client: drop silently, matching the
		// "protocol violation: log, drop the line, keep the session"
		// policy in spec.md §7 (logging is the caller's job).
		return Decision{}
	}
}

func forwardFromUpstream(in ForwardInput) Decision {
	msg := in.Msg

	if msg.Kind == KindSignal {
		return forwardSignalFromUpstream(in)
	}

	mode := in.Cat.EffectiveMode(msg.Key)

	// Rule 3, bullet 1: cache-only keys, replayed only in welcomes. This
	// covers both the fixed id=/version=/layout=/metar= keys and any
	// keyword the catalogue declares as LEXICON mode (the lexicon block
	// from spec.md §4.3 step 4 is assembled from these at welcome time).
	if isWelcomeOnlyKey(msg.Key) || mode.IsLexicon() {
		return Decision{Effects: []Effect{{Kind: EffectCacheUpdate, Keyword: msg.Key, Value: msg.Value}}}
	}

	// Rule 3, bullet 2: pure-START keywords forward only to peers and to
	// clients currently in their welcome window.
	if mode.PureStart() {
		d := Decision{}
		for _, c := range in.Clients {
			if c.IsPeer || c.WaitingForStart {
				d.Deliveries = append(d.Deliveries, Delivery{
					Dest:        destClient(c.ID),
					Msg:         msg,
					MarkWelcome: msg.Key,
				})
			}
		}
		return d
	}

	// Rule 3, bullet 3: filtered keywords are dropped and counted;
	// filter wins over caching per the tie-break rule.
	if reason, filtered := filteredReason(in.Tables, in.Filters, msg.Key); filtered {
		return Decision{Effects: []Effect{{Kind: EffectFilterDrop, Keyword: reason}}}
	}

	// Otherwise: update cache unless pure-DELTA, forward to every
	// client whose nolong flag doesn't exclude this keyword.
	d := Decision{}
	if !mode.PureDelta() {
		d.Effects = append(d.Effects, Effect{Kind: EffectCacheUpdate, Keyword: msg.Key, Value: msg.Value})
	}
	for _, c := range in.Clients {
		if c.Nolong && in.Tables.isNolong(msg.Key) {
			continue
		}
		d.Deliveries = append(d.Deliveries, deliverToClient(c, msg))
	}
	return d
}

func forwardSignalFromUpstream(in ForwardInput) Decision {
	msg := in.Msg
	switch msg.Value {
	case SigLoad1, SigLoad2, SigLoad3:
		d := Decision{}
		for _, c := range in.Clients {
			d.Deliveries = append(d.Deliveries, deliverToClient(c, msg))
		}
		return d
	default:
		return Decision{}
	}
}

// filteredReason reports whether keyword should be dropped under the
// current filter flags, and which counter to increment if so.
func filteredReason(t FilterTables, f FilterFlags, keyword string) (string, bool) {
	if f.Elevation && t.isElevation(keyword) {
		return "elevation", true
	}
	if f.Traffic && t.isTraffic(keyword) {
		return "traffic", true
	}
	if f.FlightControls && t.isFlightControl(keyword) {
		return "flight_controls", true
	}
	return "", false
}

// clientAllowsClientTraffic reports whether a same-network client (not
// the upstream) is a valid recipient of another client's plain
// traffic: blocked sessions never got this far, but an observer's
// outbound writes are dropped at the source, not here, per spec.md
// §4.3 — this only governs whether a *recipient* can receive.
func clientAllowsClientTraffic(c ClientView) bool {
	return c.Access != AccessBlocked
}

// deliverToClient applies the welcome-window buffering invariant from
// spec.md §4.3: while a client's welcome hasn't finished, any message
// rule 3 would otherwise forward to it is queued as pending instead of
// delivered, unless the message is itself part of the welcome.
func deliverToClient(c ClientView, msg Message) Delivery {
	if !c.WelcomeSent {
		return Delivery{Dest: destClient(c.ID), Msg: msg, Pending: true}
	}
	return Delivery{Dest: destClient(c.ID), Msg: msg}
}

func destUpstream() Destination        { return Destination{Kind: DestUpstream} }
func destClient(id uint64) Destination { return Destination{Kind: DestClient, ClientID: id} }
