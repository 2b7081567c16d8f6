package router

import (
	"fmt"
	"net"
)

// Config is the static, TOML-loaded configuration surface. The section
// names and keys mirror the config file layout; unlike the teacher's
// Viper-backed hub.Config (hub/config.go), frankenrouter's dynamic,
// live-toggleable state (filter flags, blocklist, upstream target) is
// small enough that it lives in RuntimeState instead of a generic
// string-keyed Map — see runtime.go.
type Config struct {
	Identity IdentityConfig   `toml:"identity"`
	Listen   ListenConfig     `toml:"listen"`
	Upstream []UpstreamConfig `toml:"upstream"`
	Log      LogConfig        `toml:"log"`
	PSX      PSXConfig        `toml:"psx"`
	Access   []AccessRule     `toml:"access"`
	Check    []CheckConfig    `toml:"check"`
	Perf     PerfConfig       `toml:"performance"`
}

type IdentityConfig struct {
	Simulator   string `toml:"simulator"`
	Router      string `toml:"router"`
	StopMinded  bool   `toml:"stop_minded"`
}

type ListenConfig struct {
	Port        int `toml:"port"`
	RESTAPIPort int `toml:"rest_api_port"`
}

type UpstreamConfig struct {
	Default  bool   `toml:"default"`
	Name     string `toml:"name"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
}

type LogConfig struct {
	Traffic             bool   `toml:"traffic"`
	Directory           string `toml:"directory"`
	TrafficMaxSize      int64  `toml:"traffic_max_size"`
	TrafficKeepVersions int    `toml:"traffic_keep_versions"`
	OutputMaxSize       int64  `toml:"output_max_size"`
	OutputKeepVersions  int    `toml:"output_keep_versions"`
}

type PSXConfig struct {
	Variables             string `toml:"variables"`
	FilterElevation       bool   `toml:"filter_elevation"`
	FilterTraffic         bool   `toml:"filter_traffic"`
	FilterFlightControls  bool   `toml:"filter_flight_controls"`
}

// AccessRule is one [[access]] entry, per spec.md §4.6 and §6. Rules
// are evaluated in file order, first match wins.
type AccessRule struct {
	DisplayName  string   `toml:"display_name"`
	MatchIPv4    []string `toml:"match_ipv4"`
	MatchPassword string  `toml:"match_password"`
	Level        string   `toml:"level"`

	nets []*net.IPNet // parsed lazily by Validate
	any  bool
}

// CheckConfig is one [[check]] entry, per spec.md §6: a check type, a
// regexp and an optional numeric limit window. The entries are loaded
// into Config but nothing else in the router reads them; peer
// detection (IsPeerGreeting, FRDP IDENT/PONG) and access control do not
// consult them.
type CheckConfig struct {
	Type      string  `toml:"type"`
	Regexp    string  `toml:"regexp"`
	LimitMin  float64 `toml:"limit_min"`
	LimitMax  float64 `toml:"limit_max"`
	Comment   string  `toml:"comment"`
}

// PerfConfig carries the warning thresholds from spec.md §6. They are
// loaded into Config but nothing else in the router reads them: neither
// /api/stats nor the status table compares measurements against them.
type PerfConfig struct {
	WriteBufferWarnBytes int64 `toml:"write_buffer_warn_bytes"`
	QueueTimeWarnMillis  int64 `toml:"queue_time_warn_ms"`
	TotalDelayWarnMillis int64 `toml:"total_delay_warn_ms"`
	MonitorDelayWarnMillis int64 `toml:"monitor_delay_warn_ms"`
	FRDPRTTWarnMillis    int64 `toml:"frdp_rtt_warn_ms"`
}

// DefaultUpstream returns the upstream entry marked default, or the
// first entry if none is marked, matching the permissive "pick
// something sane" posture the teacher's serve.go takes with its own
// config defaults.
func (c *Config) DefaultUpstream() (UpstreamConfig, bool) {
	if len(c.Upstream) == 0 {
		return UpstreamConfig{}, false
	}
	for _, u := range c.Upstream {
		if u.Default {
			return u, true
		}
	}
	return c.Upstream[0], true
}

// Validate checks the parts of Config that spec.md §7 classifies as
// "Configuration error" (fail at startup with a specific message):
// invalid CIDR and unknown access level.
func (c *Config) Validate() error {
	for i := range c.Access {
		if err := c.Access[i].compile(); err != nil {
			return fmt.Errorf("router: access rule %d (%s): %w", i, c.Access[i].DisplayName, err)
		}
	}
	return nil
}

func (r *AccessRule) compile() error {
	level, err := parseAccessLevel(r.Level)
	if err != nil {
		return err
	}
	_ = level
	for _, m := range r.MatchIPv4 {
		if m == "ANY" {
			r.any = true
			continue
		}
		_, ipnet, err := net.ParseCIDR(m)
		if err != nil {
			return fmt.Errorf("invalid CIDR %q: %w", m, err)
		}
		r.nets = append(r.nets, ipnet)
	}
	return nil
}

func parseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case "blocked":
		return AccessBlocked, nil
	case "observer":
		return AccessObserver, nil
	case "full":
		return AccessFull, nil
	default:
		return AccessBlocked, fmt.Errorf("unknown access level %q", s)
	}
}
