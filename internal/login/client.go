package login

import (
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/login/serverpackets"
	"github.com/udisondev/la2login/internal/protocol"
)

// closeFlushTimeout ограничивает запись последнего пакета перед закрытием.
const closeFlushTimeout = 2 * time.Second

// Client represents a single client connection to the login server.
type Client struct {
	conn       net.Conn
	enc        protocol.FrameCipher
	sendPool   *protocol.BytePool
	addr       netip.Addr
	ip         string
	sessionID  int32
	rsaKeyPair *crypto.RSAKeyPair
	startTime  time.Time

	// writeMu сериализует запись: ответы handler'а и принудительное закрытие
	// из чужих goroutine (дубль логина, purge, kick).
	writeMu sync.Mutex
	closed  atomic.Bool

	mu          sync.Mutex
	state       ConnectionState
	sessionKey  SessionKey
	hasKey      bool
	account     string
	accessLevel int
	lastServer  int
	joinedGS    bool
	chars       map[int]int
	deletions   map[int][]int64
}

// NewClient creates a new login client state for the given connection.
func NewClient(conn net.Conn, enc protocol.FrameCipher, rsaKeyPair *crypto.RSAKeyPair, sendPool *protocol.BytePool) (*Client, error) {
	ap, err := netip.ParseAddrPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("parsing remote address %q: %w", conn.RemoteAddr(), err)
	}
	addr := ap.Addr().Unmap()

	return &Client{
		conn:       conn,
		enc:        enc,
		sendPool:   sendPool,
		addr:       addr,
		ip:         addr.String(),
		sessionID:  rand.Int32(),
		rsaKeyPair: rsaKeyPair,
		startTime:  time.Now(),
		state:      StateConnected,
		chars:      make(map[int]int),
		deletions:  make(map[int][]int64),
	}, nil
}

// IP returns the client's remote IP address.
func (c *Client) IP() string {
	return c.ip
}

// Addr returns the client's remote address.
func (c *Client) Addr() netip.Addr {
	return c.addr
}

// SessionID returns the session ID assigned to this client.
func (c *Client) SessionID() int32 {
	return c.sessionID
}

// RSAKeyPair returns the RSA key pair assigned to this client.
func (c *Client) RSAKeyPair() *crypto.RSAKeyPair {
	return c.rsaKeyPair
}

// StartTime — момент подключения, от него отсчитывается login timeout.
func (c *Client) StartTime() time.Time {
	return c.startTime
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState sets the connection state.
func (c *Client) SetState(s ConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Account returns the logged-in account name.
func (c *Client) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// SetAccount sets the account name.
func (c *Client) SetAccount(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = name
}

// SessionKey returns the session key and whether one was issued.
func (c *Client) SessionKey() (SessionKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionKey, c.hasKey
}

// SetSessionKey sets the session key.
func (c *Client) SetSessionKey(sk SessionKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionKey = sk
	c.hasKey = true
}

func (c *Client) AccessLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessLevel
}

func (c *Client) LastServer() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastServer
}

func (c *Client) setAccountInfo(accessLevel, lastServer int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessLevel = accessLevel
	c.lastServer = lastServer
}

func (c *Client) setLastServer(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastServer = id
}

// JoinedGS reports whether PlayOk was sent: the account is in flight to a game server.
func (c *Client) JoinedGS() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joinedGS
}

func (c *Client) setJoinedGS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joinedGS = true
}

// SetCharacters stores what a game server reported for this account.
// deletions are absolute deletion times in epoch milliseconds.
func (c *Client) SetCharacters(serverID, count int, deletions []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count > 0 {
		c.chars[serverID] = count
	}
	if len(deletions) > 0 {
		c.deletions[serverID] = append([]int64(nil), deletions...)
	}
}

// Characters returns copies of the per-server character counts and deletion times.
func (c *Client) Characters() (map[int]int, map[int][]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.chars), maps.Clone(c.deletions)
}

// Send writes one packet; write fills the payload and returns its length.
func (c *Client) Send(write func(buf []byte) int) error {
	buf := c.sendPool.Get()
	defer c.sendPool.Put(buf)

	n := write(buf[2:])
	return c.sendRaw(buf, n)
}

func (c *Client) sendRaw(buf []byte, n int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return net.ErrClosed
	}
	return protocol.WritePacket(c.conn, c.enc, buf, n)
}

// Close flushes LoginFail(reason) best-effort and closes the connection.
func (c *Client) Close(reason byte) {
	c.CloseWith(func(buf []byte) int {
		return serverpackets.LoginFail(buf, reason)
	})
}

// CloseWith flushes a final packet best-effort and closes the connection.
// Only the first call has effect.
func (c *Client) CloseWith(write func(buf []byte) int) {
	if c.closed.Load() {
		return
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeFlushTimeout))
	if err := c.Send(write); err != nil {
		slog.Debug("final packet not delivered", "client", c.ip, "err", err)
	}
	c.closeConn()
}

func (c *Client) closeConn() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Swap(true) {
		return
	}
	if err := c.conn.Close(); err != nil {
		slog.Debug("closing client connection", "client", c.ip, "err", err)
	}
}

// Closed reports whether the connection was closed by the server.
func (c *Client) Closed() bool {
	return c.closed.Load()
}
