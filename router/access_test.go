package router

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessFirstMatchWins(t *testing.T) {
	tbl, err := NewAccessTable([]AccessRule{
		{DisplayName: "local-secure", MatchIPv4: []string{"127.0.0.1/32"}, MatchPassword: "s3cret", Level: "full"},
		{DisplayName: "default", MatchIPv4: []string{"ANY"}, Level: "observer"},
	})
	require.NoError(t, err)

	level, _ := tbl.Evaluate(net.ParseIP("127.0.0.1"), "")
	require.Equal(t, AccessObserver, level, "missing password should fall through to the next rule")

	level, name := tbl.Evaluate(net.ParseIP("127.0.0.1"), "s3cret")
	require.Equal(t, AccessFull, level)
	require.Equal(t, "local-secure", name)
}

func TestAccessNoMatchIsBlocked(t *testing.T) {
	tbl, err := NewAccessTable([]AccessRule{
		{DisplayName: "lan", MatchIPv4: []string{"10.0.0.0/8"}, Level: "full"},
	})
	require.NoError(t, err)
	level, _ := tbl.Evaluate(net.ParseIP("8.8.8.8"), "")
	require.Equal(t, AccessBlocked, level)
}

func TestAccessInvalidCIDRRejected(t *testing.T) {
	_, err := NewAccessTable([]AccessRule{
		{DisplayName: "bad", MatchIPv4: []string{"not-a-cidr"}, Level: "full"},
	})
	require.Error(t, err)
}

func TestAccessUnknownLevelRejected(t *testing.T) {
	_, err := NewAccessTable([]AccessRule{
		{DisplayName: "bad", MatchIPv4: []string{"ANY"}, Level: "superadmin"},
	})
	require.Error(t, err)
}
