package gameserver

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAddress(t *testing.T, subnet, host string) Address {
	t.Helper()
	a, err := ParseAddress(subnet, host)
	require.NoError(t, err)
	return a
}

func TestGameServerInfo_CanLogin(t *testing.T) {
	link := newStubLink("a", "b")

	tests := []struct {
		name        string
		attach      bool
		maxPlayers  int
		status      int
		accessLevel int
		want        bool
	}{
		{name: "not authed", attach: false, maxPlayers: 10, status: StatusGood, want: false},
		{name: "free slots", attach: true, maxPlayers: 10, status: StatusGood, want: true},
		{name: "full", attach: true, maxPlayers: 2, status: StatusGood, want: false},
		{name: "full privileged", attach: true, maxPlayers: 2, status: StatusGood, accessLevel: 1, want: true},
		{name: "gm only", attach: true, maxPlayers: 10, status: StatusGMOnly, want: false},
		{name: "gm only privileged", attach: true, maxPlayers: 10, status: StatusGMOnly, accessLevel: 100, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewGameServerInfo(1, nil)
			if tt.attach {
				require.True(t, info.Attach(link, 7777, tt.maxPlayers, nil))
			}
			info.SetStatus(tt.status)
			assert.Equal(t, tt.want, info.CanLogin(tt.accessLevel))
		})
	}
}

func TestGameServerInfo_AttachOnce(t *testing.T) {
	info := NewGameServerInfo(1, nil)
	require.True(t, info.Attach(newStubLink(), 7777, 10, nil))
	assert.False(t, info.Attach(newStubLink(), 7778, 10, nil))
	assert.Equal(t, 7777, info.Port())

	info.SetDown()
	assert.False(t, info.IsAuthed())
	assert.Equal(t, StatusDown, info.Status())
	assert.Equal(t, 0, info.CurrentPlayerCount())
	assert.True(t, info.Attach(newStubLink(), 7778, 10, nil))
}

func TestGameServerInfo_ServerAddressPerSubnet(t *testing.T) {
	info := NewGameServerInfo(1, nil)
	addrs := []Address{
		mustAddress(t, "10.0.0.0/8", "10.0.0.2"),
		mustAddress(t, "192.168.1.5", "192.168.1.1"),
		mustAddress(t, "0.0.0.0/0", "203.0.113.10"),
	}
	require.True(t, info.Attach(newStubLink(), 7777, 10, addrs))

	assert.Equal(t, "10.0.0.2", info.ServerAddress(netip.MustParseAddr("10.20.30.40")))
	assert.Equal(t, "192.168.1.1", info.ServerAddress(netip.MustParseAddr("192.168.1.5")))
	assert.Equal(t, "203.0.113.10", info.ServerAddress(netip.MustParseAddr("192.168.1.6")))
	assert.Equal(t, "203.0.113.10", info.ExternalHost())
	assert.Len(t, info.Addresses(), 3)
}

func TestGameServerInfo_NoMatchingSubnet(t *testing.T) {
	info := NewGameServerInfo(1, nil)
	require.True(t, info.Attach(newStubLink(), 7777, 10, []Address{mustAddress(t, "10.0.0.0/8", "10.0.0.2")}))

	assert.Empty(t, info.ServerAddress(netip.MustParseAddr("8.8.8.8")))
	assert.Empty(t, info.ExternalHost())
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "GM Only", StatusName(StatusGMOnly))
	assert.Equal(t, "Down", StatusName(StatusDown))
	assert.Equal(t, "Unknown", StatusName(42))
}
