package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDynamicKey = []byte{0x10, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xF0, 0x01}

func TestLoginEncryption_EncryptedSize(t *testing.T) {
	le, err := NewLoginEncryption(testDynamicKey)
	require.NoError(t, err)

	// первый кадр: +4 checksum, +4 XOR key, затем добивка до 8
	assert.Equal(t, 200, le.EncryptedSize(186))
	assert.Equal(t, 16, le.EncryptedSize(1))

	buf := make([]byte, 256)
	_, err = le.EncryptPacket(buf, 0, 186)
	require.NoError(t, err)

	assert.Equal(t, 8, le.EncryptedSize(2))
	assert.Equal(t, 16, le.EncryptedSize(4), "aligned size still gets a full padding block")
	assert.Equal(t, 56, le.EncryptedSize(49))
}

func TestLoginEncryption_InitFrameDecodedByClient(t *testing.T) {
	le, err := NewLoginEncryption(testDynamicKey)
	require.NoError(t, err)
	le.xorKey = func() uint32 { return 0x12345678 }

	payload := make([]byte, 186)
	for i := range payload {
		payload[i] = byte(i + 1)
	}
	buf := make([]byte, 256)
	copy(buf, payload)

	n, err := le.EncryptPacket(buf, 0, len(payload))
	require.NoError(t, err)
	require.Equal(t, 200, n)
	assert.NotEqual(t, payload, buf[:len(payload)])

	ce, err := NewClientEncryption()
	require.NoError(t, err)
	require.NoError(t, ce.DecryptInit(buf, 0, n))

	assert.Equal(t, payload, buf[:len(payload)])
}

func TestLoginEncryption_DynamicFramesBothDirections(t *testing.T) {
	le, err := NewLoginEncryption(testDynamicKey)
	require.NoError(t, err)
	ce, err := NewClientEncryption()
	require.NoError(t, err)
	require.NoError(t, ce.SetKey(testDynamicKey))

	// Init уходит статическим ключом
	initBuf := make([]byte, 256)
	_, err = le.EncryptPacket(initBuf, 0, 186)
	require.NoError(t, err)

	t.Run("server to client", func(t *testing.T) {
		payload := []byte{0x03, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		buf := make([]byte, 64)
		copy(buf, payload)

		n, err := le.EncryptPacket(buf, 0, len(payload))
		require.NoError(t, err)
		assert.Zero(t, n%8)

		ok, err := ce.DecryptPacket(buf, 0, n)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, payload, buf[:len(payload)])
	})

	t.Run("client to server", func(t *testing.T) {
		payload := []byte{0x07, 0xAA, 0xBB, 0xCC, 0xDD}
		buf := make([]byte, 64)
		copy(buf, payload)

		n, err := ce.EncryptPacket(buf, 0, len(payload))
		require.NoError(t, err)

		ok, err := le.DecryptPacket(buf, 0, n)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, payload, buf[:len(payload)])
	})

	t.Run("tampered frame", func(t *testing.T) {
		buf := make([]byte, 64)
		copy(buf, []byte{0x05, 1, 2, 3, 4, 5, 6, 7, 8})
		n, err := ce.EncryptPacket(buf, 0, 9)
		require.NoError(t, err)
		buf[3] ^= 0xFF

		ok, err := le.DecryptPacket(buf, 0, n)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("misaligned frame", func(t *testing.T) {
		_, err := le.DecryptPacket(make([]byte, 12), 0, 12)
		assert.Error(t, err)
	})
}

func TestLoginEncryption_BufferTooSmall(t *testing.T) {
	le, err := NewLoginEncryption(testDynamicKey)
	require.NoError(t, err)

	buf := make([]byte, 10)
	_, err = le.EncryptPacket(buf, 0, 10)
	assert.ErrorIs(t, err, ErrPacketTooLong)
}

func TestGameServerEncryption_RoundTripAndRekey(t *testing.T) {
	server, err := NewGameServerEncryption()
	require.NoError(t, err)
	peer, err := NewGameServerEncryption()
	require.NoError(t, err)

	assert.Equal(t, 8, server.EncryptedSize(4), "aligned payload+checksum needs no extra block")
	assert.Equal(t, 16, server.EncryptedSize(5))

	payload := []byte{0x00, 0x06, 0x01, 0x00, 0x00}
	buf := make([]byte, 32)
	copy(buf, payload)
	n, err := server.EncryptPacket(buf, 0, len(payload))
	require.NoError(t, err)

	ok, err := peer.DecryptPacket(buf, 0, n)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, buf[:len(payload)])

	newKey := bytes.Repeat([]byte{0x5A}, 40)
	require.NoError(t, server.SetKey(newKey))

	copy(buf, payload)
	n, err = server.EncryptPacket(buf, 0, len(payload))
	require.NoError(t, err)
	ok, err = peer.DecryptPacket(bytes.Clone(buf), 0, n)
	require.NoError(t, err)
	assert.False(t, ok, "peer still on the default key")

	require.NoError(t, peer.SetKey(newKey))
	ok, err = peer.DecryptPacket(buf, 0, n)
	require.NoError(t, err)
	assert.True(t, ok)
}
