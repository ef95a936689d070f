package testutil

import (
	"crypto/rsa"
	"fmt"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/packet"
	"github.com/udisondev/la2login/internal/protocol"
)

// Opcodes LoginServer → GameServer.
const (
	OpInitLS                 = 0x00
	OpLoginServerFail        = 0x01
	OpAuthResponse           = 0x02
	OpPlayerAuthResponse     = 0x03
	OpKickPlayer             = 0x04
	OpRequestCharacters      = 0x05
	OpChangePasswordResponse = 0x06
)

// GSClient is a scripted game server for integration tests of the GS listener.
type GSClient struct {
	t        testing.TB
	conn     net.Conn
	enc      *crypto.GameServerEncryption
	readBuf  []byte
	writeBuf []byte
	timeout  time.Duration

	revision  int32
	publicKey *rsa.PublicKey
}

// NewGSClient dials addr and consumes InitLS.
// The connection is closed on test cleanup.
func NewGSClient(t testing.TB, addr string) (*GSClient, error) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial gslistener: %w", err)
	}

	enc, err := crypto.NewGameServerEncryption()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c := &GSClient{
		t:        t,
		conn:     conn,
		enc:      enc,
		readBuf:  make([]byte, constants.GSListenerReadBufSize),
		writeBuf: make([]byte, constants.GSListenerReadBufSize),
		timeout:  5 * time.Second,
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.readInitLS(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read InitLS: %w", err)
	}
	return c, nil
}

func (c *GSClient) readInitLS() error {
	body, err := c.Expect(OpInitLS)
	if err != nil {
		return err
	}
	r := packet.NewReader(body[1:])
	if c.revision, err = r.ReadInt(); err != nil {
		return err
	}
	size, err := r.ReadInt()
	if err != nil {
		return err
	}
	modulus, err := r.ReadBytes(int(size))
	if err != nil {
		return err
	}
	c.publicKey = &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: constants.RSAPublicExponent}
	return nil
}

// Revision returns the protocol revision announced in InitLS.
func (c *GSClient) Revision() int32 { return c.revision }

// PublicKey returns the RSA-512 key announced in InitLS.
func (c *GSClient) PublicKey() *rsa.PublicKey { return c.publicKey }

// Send encrypts payload with the current key and writes one frame.
func (c *GSClient) Send(payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	n := copy(c.writeBuf[constants.PacketHeaderSize:], payload)
	return protocol.WritePacket(c.conn, c.enc, c.writeBuf, n)
}

// Read returns the next decrypted packet body.
func (c *GSClient) Read() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	return protocol.ReadPacket(c.conn, c.enc, c.readBuf)
}

// Expect reads the next packet and fails unless its opcode is op.
func (c *GSClient) Expect(op byte) ([]byte, error) {
	body, err := c.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case body[0] == op:
		return body, nil
	case body[0] == OpLoginServerFail && op != OpLoginServerFail:
		return nil, fmt.Errorf("received LoginServerFail, reason %d", body[1])
	default:
		return nil, fmt.Errorf("expected opcode 0x%02X, got 0x%02X", op, body[0])
	}
}

// SendBlowFishKey seals key with the announced RSA-512 key, sends it
// and switches the channel to key.
func (c *GSClient) SendBlowFishKey(key []byte) error {
	block := make([]byte, constants.RSA512ModulusSize)
	copy(block[len(block)-len(key):], key)

	sealed, err := crypto.RSAEncryptNoPadding(c.publicKey, block)
	if err != nil {
		return fmt.Errorf("sealing blowfish key: %w", err)
	}
	if err := c.Send(MakeBlowFishKeyPacket(sealed)); err != nil {
		return err
	}
	return c.enc.SetKey(key)
}

// SendGameServerAuth registers with the given id and hexID on port 7777.
func (c *GSClient) SendGameServerAuth(id byte, hexID []byte, acceptAlt bool, maxPlayers int32, hosts ...GSHost) error {
	return c.Send(MakeGameServerAuthPacket(id, acceptAlt, hexID, 7777, maxPlayers, hosts...))
}

// ReadAuthResponse reads AuthResponse and returns the granted id and name.
func (c *GSClient) ReadAuthResponse() (byte, string, error) {
	body, err := c.Expect(OpAuthResponse)
	if err != nil {
		return 0, "", err
	}
	r := packet.NewReader(body[1:])
	id, _ := r.ReadByte()
	name, err := r.ReadString()
	return id, name, err
}

// ReadLoginServerFail reads LoginServerFail and returns its reason.
func (c *GSClient) ReadLoginServerFail() (byte, error) {
	body, err := c.Expect(OpLoginServerFail)
	if err != nil {
		return 0, err
	}
	return body[1], nil
}

// Register runs the key exchange and GameServerAuth and returns the granted id.
func (c *GSClient) Register(id byte, hexID []byte, hosts ...GSHost) (byte, error) {
	if err := c.SendBlowFishKey(Fixtures.GSBlowfishKey); err != nil {
		return 0, err
	}
	if err := c.SendGameServerAuth(id, hexID, false, 100, hosts...); err != nil {
		return 0, err
	}
	granted, _, err := c.ReadAuthResponse()
	return granted, err
}

// ReadPlayerAuthResponse reads PlayerAuthResponse.
func (c *GSClient) ReadPlayerAuthResponse() (string, bool, error) {
	body, err := c.Expect(OpPlayerAuthResponse)
	if err != nil {
		return "", false, err
	}
	r := packet.NewReader(body[1:])
	account, err := r.ReadString()
	if err != nil {
		return "", false, err
	}
	ok, err := r.ReadByte()
	return account, ok == 1, err
}

// ReadAccountRequest reads KickPlayer or RequestCharacters and returns the account.
func (c *GSClient) ReadAccountRequest(op byte) (string, error) {
	body, err := c.Expect(op)
	if err != nil {
		return "", err
	}
	return packet.NewReader(body[1:]).ReadString()
}

// Close closes the connection.
func (c *GSClient) Close() error {
	return c.conn.Close()
}
