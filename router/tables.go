package router

// FilterTables holds the per-keyword special-case sets the rules
// function consults, per the spec.md §9 design note: "keep the rules
// function pure and data-driven; special cases live in tables the
// function consults." These are overridable so an operator can tune
// them without recompiling, but ship with the defaults PSX deployments
// have historically used.
type FilterTables struct {
	Elevation      map[string]struct{}
	Traffic        map[string]struct{}
	FlightControls map[string]struct{}
	Nolong         map[string]struct{}
}

// DefaultFilterTables returns the built-in keyword sets. The exact
// membership of "elevation injection", "traffic/TCAS" and "rudder/
// aileron/elevator axes" keywords is PSX-specific and not enumerated
// in spec.md beyond naming the categories; these are a representative
// baseline, expected to be extended via configuration for a given PSX
// variable set.
func DefaultFilterTables() FilterTables {
	return FilterTables{
		Elevation: set("Qi198", "Qi199", "ElevationSet"),
		Traffic: set(
			"TfcAdd", "TfcDel", "TfcPos", "TfcVel", "TfcAtt", "TfcTag", "TCASmode",
		),
		FlightControls: set(
			"Qr025", "Qr026", "Qr027", // rudder
			"Qr020", "Qr021", // aileron
			"Qr023", "Qr024", // elevator
		),
		// The "nolong" fixed keyword set is under-documented upstream
		// (spec.md §9 Open Questions); this implements the safe default
		// of excluding the long/lat position stream, the set a client
		// would plausibly ask to stop receiving, while leaving the set
		// overridable per spec.md's stated resolution.
		Nolong: set("Qs120", "Qs121", "long", "lat"),
	}
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func (t FilterTables) isElevation(kw string) bool {
	_, ok := t.Elevation[kw]
	return ok
}

func (t FilterTables) isTraffic(kw string) bool {
	_, ok := t.Traffic[kw]
	return ok
}

func (t FilterTables) isFlightControl(kw string) bool {
	_, ok := t.FlightControls[kw]
	return ok
}

func (t FilterTables) isNolong(kw string) bool {
	_, ok := t.Nolong[kw]
	return ok
}

// Fixed cache-only keys replayed solely in welcome bursts, per
// spec.md §4.2 rule 3. Lexicon-block keywords are a dynamic,
// catalogue-declared set (Mode.IsLexicon) rather than a fixed list,
// since a deployment's lexicon variables vary by catalogue file.
var welcomeOnlyKeys = set(KeyID, KeyVersion, KeyLayout, KeyMetar)

func isWelcomeOnlyKey(key string) bool {
	_, ok := welcomeOnlyKeys[key]
	return ok
}
