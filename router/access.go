package router

import "net"

// AccessTable is the compiled, ordered rule list from [[access]], per
// spec.md §4.6: "Rule list, ordered, first match wins." It is read-only
// after construction, same discipline as Catalogue.
type AccessTable struct {
	rules []AccessRule
}

// NewAccessTable compiles rules, validating CIDRs and levels. Returns
// an error per spec.md §7's "Configuration error" policy so the caller
// can fail at startup rather than silently blocking everyone.
func NewAccessTable(rules []AccessRule) (*AccessTable, error) {
	compiled := make([]AccessRule, len(rules))
	copy(compiled, rules)
	for i := range compiled {
		if err := compiled[i].compile(); err != nil {
			return nil, err
		}
	}
	return &AccessTable{rules: compiled}, nil
}

// Evaluate matches remoteIP and an optional FRDP-AUTH password (empty
// if none was sent) against the rule list and returns the first
// matching level, or AccessBlocked if nothing matches, per spec.md
// §4.6's "No match -> blocked."
func (t *AccessTable) Evaluate(remoteIP net.IP, password string) (AccessLevel, string) {
	for _, r := range t.rules {
		if !r.matchesIP(remoteIP) {
			continue
		}
		if r.MatchPassword != "" && r.MatchPassword != password {
			continue
		}
		level, _ := parseAccessLevel(r.Level)
		return level, r.DisplayName
	}
	return AccessBlocked, ""
}

func (r AccessRule) matchesIP(ip net.IP) bool {
	if r.any {
		return true
	}
	for _, n := range r.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
