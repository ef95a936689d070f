package gslistener

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/gslistener/serverpackets"
	"github.com/udisondev/la2login/internal/protocol"
)

const closeFlushTimeout = 2 * time.Second

var errEmptyKey = errors.New("empty blowfish key")

// GSConnection представляет подключение одного GameServer к LoginServer.
// После аутентификации служит gameserver.Link: через него логин-сервер
// кикает игроков, запрашивает персонажей и отвечает на смену пароля.
type GSConnection struct {
	conn       net.Conn
	ip         string
	enc        *crypto.GameServerEncryption
	rsaKeyPair *crypto.RSAKeyPair
	sendPool   *protocol.BytePool

	writeMu sync.Mutex
	closed  atomic.Bool

	mu       sync.Mutex
	state    gameserver.GSConnectionState
	info     *gameserver.GameServerInfo
	accounts map[string]struct{}
}

// NewGSConnection создаёт новое подключение GameServer с ключом канала по умолчанию.
func NewGSConnection(conn net.Conn, rsaKeyPair *crypto.RSAKeyPair, sendPool *protocol.BytePool) (*GSConnection, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}

	enc, err := crypto.NewGameServerEncryption()
	if err != nil {
		return nil, fmt.Errorf("creating game server encryption: %w", err)
	}

	return &GSConnection{
		conn:       conn,
		ip:         host,
		enc:        enc,
		rsaKeyPair: rsaKeyPair,
		sendPool:   sendPool,
		state:      gameserver.GSStateConnected,
		accounts:   make(map[string]struct{}),
	}, nil
}

// IP returns the remote IP address
func (c *GSConnection) IP() string {
	return c.ip
}

// State возвращает текущее состояние соединения
func (c *GSConnection) State() gameserver.GSConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState устанавливает новое состояние соединения
func (c *GSConnection) SetState(s gameserver.GSConnectionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// RSAKeyPair возвращает RSA-512 ключ этого соединения
func (c *GSConnection) RSAKeyPair() *crypto.RSAKeyPair {
	return c.rsaKeyPair
}

// SetKey switches the channel to the key delivered in BlowFishKey.
// Leading zero bytes left by RSA are stripped first.
func (c *GSConnection) SetKey(block []byte) error {
	key := bytes.TrimLeft(block, "\x00")
	if len(key) == 0 {
		return errEmptyKey
	}
	return c.enc.SetKey(key)
}

// AttachGameServerInfo привязывает запись реестра после аутентификации
func (c *GSConnection) AttachGameServerInfo(info *gameserver.GameServerInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
}

// GameServerInfo возвращает запись реестра (nil если не аутентифицирован)
func (c *GSConnection) GameServerInfo() *gameserver.GameServerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// ServerID returns the bound server id, or -1 before authentication.
func (c *GSConnection) ServerID() int {
	if info := c.GameServerInfo(); info != nil {
		return info.ID()
	}
	return -1
}

// AddAccount добавляет аккаунт в список онлайн игроков
func (c *GSConnection) AddAccount(account string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[account] = struct{}{}
}

// RemoveAccount удаляет аккаунт из списка онлайн игроков
func (c *GSConnection) RemoveAccount(account string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.accounts, account)
}

// HasAccount проверяет, находится ли аккаунт в списке онлайн игроков
func (c *GSConnection) HasAccount(account string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.accounts[account]
	return ok
}

// PlayerCount returns the number of accounts online on this server.
func (c *GSConnection) PlayerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.accounts)
}

// KickPlayer asks the game server to disconnect account.
func (c *GSConnection) KickPlayer(account string) {
	c.push("KickPlayer", func(buf []byte) (int, error) {
		return serverpackets.KickPlayer(buf, account)
	})
}

// RequestCharacters asks the game server for the account's character counts.
func (c *GSConnection) RequestCharacters(account string) {
	c.push("RequestCharacters", func(buf []byte) (int, error) {
		return serverpackets.RequestCharacters(buf, account)
	})
}

// ChangePasswordResponse reports the outcome of a password change.
func (c *GSConnection) ChangePasswordResponse(ok bool, character, message string) {
	c.push("ChangePasswordResponse", func(buf []byte) (int, error) {
		return serverpackets.ChangePasswordResponse(buf, ok, character, message)
	})
}

// push отправляет пакет вне цикла чтения; ошибка только логируется,
// цикл чтения сам заметит закрытое соединение.
func (c *GSConnection) push(name string, write func(buf []byte) (int, error)) {
	if err := c.sendPacket(write); err != nil {
		slog.Warn("failed to send packet to game server", "packet", name, "server_id", c.ServerID(), "err", err)
	}
}

// Send writes one packet: write fills the payload and returns its length.
func (c *GSConnection) Send(write func(buf []byte) int) error {
	return c.sendPacket(func(buf []byte) (int, error) {
		return write(buf), nil
	})
}

// sendPacket is Send for writers that can overflow the buffer;
// nothing is sent when write fails.
func (c *GSConnection) sendPacket(write func(buf []byte) (int, error)) error {
	buf := c.sendPool.Get()
	defer c.sendPool.Put(buf)
	n, err := write(buf[constants.PacketHeaderSize:])
	if err != nil {
		return fmt.Errorf("building packet: %w", err)
	}
	return c.sendRaw(buf, n)
}

// sendRaw encrypts and writes a payload already placed at buf[PacketHeaderSize:].
func (c *GSConnection) sendRaw(buf []byte, n int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return net.ErrClosed
	}
	return protocol.WritePacket(c.conn, c.enc, buf, n)
}

// CloseWith sends LoginServerFail(reason) best-effort and closes the connection.
func (c *GSConnection) CloseWith(reason gameserver.FailReason) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeFlushTimeout))
	if err := c.Send(func(buf []byte) int {
		return serverpackets.LoginServerFail(buf, reason)
	}); err != nil {
		slog.Debug("failed to send LoginServerFail", "ip", c.ip, "err", err)
	}
	c.Close()
}

// Close closes the connection once.
func (c *GSConnection) Close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.CompareAndSwap(false, true) {
		c.conn.Close()
	}
}
