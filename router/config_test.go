package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidateRejectsBadCIDR(t *testing.T) {
	cfg := &Config{
		Access: []AccessRule{
			{DisplayName: "bad", MatchIPv4: []string{"not-a-cidr"}, Level: "full"},
		},
	}
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsUnknownLevel(t *testing.T) {
	cfg := &Config{
		Access: []AccessRule{
			{DisplayName: "weird", MatchIPv4: []string{"ANY"}, Level: "superadmin"},
		},
	}
	require.Error(t, cfg.Validate())
}

func TestConfigValidateAcceptsWellFormedRules(t *testing.T) {
	cfg := &Config{
		Access: []AccessRule{
			{DisplayName: "lan", MatchIPv4: []string{"192.168.0.0/16"}, Level: "full"},
			{DisplayName: "everyone else", MatchIPv4: []string{"ANY"}, Level: "observer"},
		},
	}
	require.NoError(t, cfg.Validate())
}

func TestDefaultUpstreamPrefersMarkedDefault(t *testing.T) {
	cfg := &Config{
		Upstream: []UpstreamConfig{
			{Name: "primary", Host: "a"},
			{Name: "backup", Host: "b", Default: true},
		},
	}
	got, ok := cfg.DefaultUpstream()
	require.True(t, ok)
	require.Equal(t, "backup", got.Name)
}

func TestDefaultUpstreamFallsBackToFirstEntry(t *testing.T) {
	cfg := &Config{
		Upstream: []UpstreamConfig{
			{Name: "only", Host: "a"},
		},
	}
	got, ok := cfg.DefaultUpstream()
	require.True(t, ok)
	require.Equal(t, "only", got.Name)
}

func TestDefaultUpstreamEmptyConfig(t *testing.T) {
	cfg := &Config{}
	_, ok := cfg.DefaultUpstream()
	require.False(t, ok)
}
