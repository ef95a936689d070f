package testutil

import (
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/packet"
	"github.com/udisondev/la2login/internal/protocol"
)

// Opcodes клиентского канала в обе стороны, как их видит игровой клиент.
const (
	opRequestAuthLogin   = 0x00
	opRequestServerLogin = 0x02
	opRequestServerList  = 0x05
	opAuthGameGuard      = 0x07

	OpLoginFail     = 0x01
	OpAccountKicked = 0x02
	OpLoginOk       = 0x03
	OpServerList    = 0x04
	OpPlayFail      = 0x06
	OpPlayOk        = 0x07
	OpGGAuth        = 0x0B
)

// LoginClient is a scripted game client for integration tests of the login server.
// It decodes Init on connect and then speaks the checksum + Blowfish format.
type LoginClient struct {
	t        testing.TB
	conn     net.Conn
	enc      *crypto.ClientEncryption
	readBuf  []byte
	writeBuf []byte
	timeout  time.Duration

	sessionID   int32
	publicKey   *rsa.PublicKey
	blowfishKey []byte
}

// NewLoginClient dials addr and consumes the Init packet.
// The connection is closed on test cleanup.
func NewLoginClient(t testing.TB, addr string) (*LoginClient, error) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial login server: %w", err)
	}
	enc, err := crypto.NewClientEncryption()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	c := &LoginClient{
		t:        t,
		conn:     conn,
		enc:      enc,
		readBuf:  make([]byte, 4096),
		writeBuf: make([]byte, 4096),
		timeout:  5 * time.Second,
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.readInit(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read init packet: %w", err)
	}
	return c, nil
}

func (c *LoginClient) readInit() error {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}

	var header [constants.PacketHeaderSize]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	bodyLen := int(binary.LittleEndian.Uint16(header[:])) - constants.PacketHeaderSize
	if bodyLen < constants.InitPacketSize || bodyLen > len(c.readBuf) {
		return fmt.Errorf("unexpected init length %d", bodyLen)
	}
	body := c.readBuf[:bodyLen]
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := c.enc.DecryptInit(body, 0, bodyLen); err != nil {
		return err
	}
	if body[0] != 0x00 {
		return fmt.Errorf("expected Init opcode 0x00, got 0x%02X", body[0])
	}

	c.sessionID = int32(binary.LittleEndian.Uint32(body[constants.InitPacketSessionIDOffset:]))

	modulus := crypto.UnscrambleModulus(body[constants.InitPacketModulusOffset : constants.InitPacketModulusOffset+constants.RSA1024ModulusSize])
	c.publicKey = &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: constants.RSAPublicExponent}

	off := constants.InitPacketBlowfishKeyOffset
	c.blowfishKey = append([]byte(nil), body[off:off+constants.BlowfishKeySize]...)
	return c.enc.SetKey(c.blowfishKey)
}

// SessionID returns the session id announced in Init.
func (c *LoginClient) SessionID() int32 { return c.sessionID }

// BlowfishKey returns the dynamic key announced in Init.
func (c *LoginClient) BlowfishKey() []byte { return c.blowfishKey }

// Send encrypts payload and writes one frame.
func (c *LoginClient) Send(payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	n := copy(c.writeBuf[constants.PacketHeaderSize:], payload)
	return protocol.WritePacket(c.conn, c.enc, c.writeBuf, n)
}

// Read returns the next decrypted packet body.
func (c *LoginClient) Read() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	return protocol.ReadPacket(c.conn, c.enc, c.readBuf)
}

// Expect reads the next packet and fails unless its opcode is op.
// LoginFail and AccountKicked are reported with their reason.
func (c *LoginClient) Expect(op byte) ([]byte, error) {
	body, err := c.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case body[0] == op:
		return body, nil
	case body[0] == OpLoginFail && op != OpLoginFail:
		return nil, fmt.Errorf("received LoginFail, reason 0x%02X", body[1])
	case body[0] == OpAccountKicked && op != OpAccountKicked:
		return nil, fmt.Errorf("received AccountKicked, reason 0x%02X", body[1])
	default:
		return nil, fmt.Errorf("expected opcode 0x%02X, got 0x%02X", op, body[0])
	}
}

// SendAuthGameGuard sends AuthGameGuard with the session id from Init.
func (c *LoginClient) SendAuthGameGuard() error {
	buf := make([]byte, 21)
	w := packet.NewWriter(buf)
	w.WriteU8(opAuthGameGuard)
	w.WriteInt(c.sessionID)
	w.WriteZeros(16)
	return c.Send(w.Bytes())
}

// SendRequestAuthLogin sends credentials in the single-block layout.
func (c *LoginClient) SendRequestAuthLogin(login, password string) error {
	block := make([]byte, constants.AuthLoginBlockSize)
	copy(block[constants.AuthLoginUserOffsetLegacy:constants.AuthLoginUserOffsetLegacy+constants.AuthLoginUserMaxLength], login)
	copy(block[constants.AuthLoginPassOffsetLegacy:constants.AuthLoginPassOffsetLegacy+constants.AuthLoginPassMaxLength], password)

	sealed, err := crypto.RSAEncryptNoPadding(c.publicKey, block)
	if err != nil {
		return fmt.Errorf("sealing credentials: %w", err)
	}
	return c.Send(append([]byte{opRequestAuthLogin}, sealed...))
}

// ReadLoginOk reads LoginOk and returns the login pair.
func (c *LoginClient) ReadLoginOk() (int32, int32, error) {
	body, err := c.Expect(OpLoginOk)
	if err != nil {
		return 0, 0, err
	}
	r := packet.NewReader(body[1:])
	k1, _ := r.ReadInt()
	k2, err := r.ReadInt()
	return k1, k2, err
}

// SendRequestServerList sends RequestServerList with the login pair.
func (c *LoginClient) SendRequestServerList(k1, k2 int32) error {
	buf := make([]byte, 9)
	w := packet.NewWriter(buf)
	w.WriteU8(opRequestServerList)
	w.WriteInt(k1)
	w.WriteInt(k2)
	return c.Send(w.Bytes())
}

// ReadServerList returns the raw ServerList body.
func (c *LoginClient) ReadServerList() ([]byte, error) {
	return c.Expect(OpServerList)
}

// SendRequestServerLogin asks to join serverID.
func (c *LoginClient) SendRequestServerLogin(k1, k2 int32, serverID byte) error {
	buf := make([]byte, 10)
	w := packet.NewWriter(buf)
	w.WriteU8(opRequestServerLogin)
	w.WriteInt(k1)
	w.WriteInt(k2)
	w.WriteU8(serverID)
	return c.Send(w.Bytes())
}

// ReadPlayOk reads PlayOk and returns the play pair.
func (c *LoginClient) ReadPlayOk() (int32, int32, error) {
	body, err := c.Expect(OpPlayOk)
	if err != nil {
		return 0, 0, err
	}
	r := packet.NewReader(body[1:])
	k1, _ := r.ReadInt()
	k2, err := r.ReadInt()
	return k1, k2, err
}

// Login runs GameGuard and credentials and returns the login pair.
func (c *LoginClient) Login(login, password string) (int32, int32, error) {
	if err := c.SendAuthGameGuard(); err != nil {
		return 0, 0, err
	}
	if _, err := c.Expect(OpGGAuth); err != nil {
		return 0, 0, err
	}
	if err := c.SendRequestAuthLogin(login, password); err != nil {
		return 0, 0, err
	}
	return c.ReadLoginOk()
}

// Close closes the connection.
func (c *LoginClient) Close() error {
	return c.conn.Close()
}
