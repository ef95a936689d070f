package serverpackets

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/packet"
)

func TestInit(t *testing.T) {
	modulus := make([]byte, constants.RSA1024ModulusSize)
	for i := range modulus {
		modulus[i] = byte(i)
	}
	key := []byte{
		0x04, 0xa1, 0xc3, 0x42, 0xad, 0xaa, 0xf2, 0x34,
		0x30, 0x78, 0x9f, 0x61, 0xb8, 0x92, 0x53, 0x32,
	}

	buf := make([]byte, 256)
	n := Init(buf, 0x12345678, modulus, key)
	require.Equal(t, constants.InitPacketSize, n)

	assert.Equal(t, byte(InitOpcode), buf[0])
	r := packet.NewReader(buf[1:n])
	sid, _ := r.ReadInt()
	rev, _ := r.ReadInt()
	assert.Equal(t, int32(0x12345678), sid)
	assert.Equal(t, int32(constants.ProtocolRevisionInit), rev)

	assert.Equal(t, modulus, buf[constants.InitPacketModulusOffset:constants.InitPacketModulusOffset+128])
	assert.Equal(t, make([]byte, 16), buf[137:constants.InitPacketGGConstantsOffset])

	gg := packet.NewReader(buf[constants.InitPacketGGConstantsOffset:])
	for _, want := range []uint32{constants.GGConst1, constants.GGConst2, constants.GGConst3, constants.GGConst4} {
		got, err := gg.ReadInt()
		require.NoError(t, err)
		assert.Equal(t, want, uint32(got))
	}

	assert.Equal(t, key, buf[constants.InitPacketBlowfishKeyOffset:constants.InitPacketBlowfishKeyOffset+16])
	assert.Zero(t, buf[n-1])
}

func TestFixedSizePackets(t *testing.T) {
	buf := make([]byte, 64)

	tests := []struct {
		name   string
		write  func() int
		size   int
		opcode byte
	}{
		{name: "GGAuth", write: func() int { return GGAuth(buf, 7) }, size: 21, opcode: GGAuthOpcode},
		{name: "LoginOk", write: func() int { return LoginOk(buf, 1, 2) }, size: 49, opcode: LoginOkOpcode},
		{name: "LoginFail", write: func() int { return LoginFail(buf, ReasonAccessFailed) }, size: 2, opcode: LoginFailOpcode},
		{name: "AccountKicked", write: func() int { return AccountKicked(buf, ReasonPermanentlyBanned) }, size: 5, opcode: AccountKickedOpcode},
		{name: "PlayOk", write: func() int { return PlayOk(buf, 3, 4) }, size: 9, opcode: PlayOkOpcode},
		{name: "PlayFail", write: func() int { return PlayFail(buf, PlayFailServerOverloaded) }, size: 2, opcode: PlayFailOpcode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clear(buf)
			assert.Equal(t, tt.size, tt.write())
			assert.Equal(t, tt.opcode, buf[0])
		})
	}
}

func TestLoginOkLayout(t *testing.T) {
	buf := make([]byte, 64)
	n := LoginOk(buf, 0x11111111, 0x22222222)

	r := packet.NewReader(buf[1:n])
	var got [8]int32
	for i := range got {
		got[i], _ = r.ReadInt()
	}
	assert.Equal(t, [8]int32{0x11111111, 0x22222222, 0, 0, constants.LoginOkUnknownField, 0, 0, 0}, got)
}

func TestServerList(t *testing.T) {
	servers := []ServerInfo{
		{
			ID: 1, IP: [4]byte{10, 0, 0, 2}, Port: 7777, AgeLimit: 18, PvP: true,
			CurrentPlayers: 12, MaxPlayers: 1000, Up: true, ServerType: 0x01, Brackets: true,
		},
		{ID: 2, IP: [4]byte{127, 0, 0, 1}, Port: 7778, PvP: true},
	}
	chars := []CharactersOnServer{
		{ServerID: 1, Count: 3, DeletionSeconds: []int32{3600, 60}},
		{ServerID: 2, Count: 1},
	}

	buf := make([]byte, 256)
	n, err := ServerList(buf, servers, 2, chars)
	require.NoError(t, err)

	want := []byte{
		ServerListOpcode, 2, 2,
		// server 1
		1, 10, 0, 0, 2, 0x61, 0x1E, 0, 0, 18, 1, 12, 0, 0xE8, 0x03, 1, 1, 0, 0, 0, 1,
		// server 2
		2, 127, 0, 0, 1, 0x62, 0x1E, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, // unknown
		2,
		1, 3, 2, 0x10, 0x0E, 0, 0, 60, 0, 0, 0,
		2, 1, 0,
	}
	if diff := cmp.Diff(want, buf[:n]); diff != "" {
		t.Errorf("ServerList mismatch (-want +got):\n%s", diff)
	}
}

func TestServerList_Empty(t *testing.T) {
	buf := make([]byte, 16)
	n, err := ServerList(buf, nil, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{ServerListOpcode, 0, 1, 0, 0, 0}, buf[:n])
}

func TestServerList_Overflow(t *testing.T) {
	chars := []CharactersOnServer{{ServerID: 1, Count: 7, DeletionSeconds: make([]int32, 255)}}

	_, err := ServerList(make([]byte, 64), nil, 1, chars)
	assert.ErrorIs(t, err, packet.ErrBufferOverflow)
}
