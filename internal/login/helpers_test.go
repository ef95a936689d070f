package login

import (
	"context"
	"io"
	"net"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/protocol"
	"github.com/udisondev/la2login/internal/testutil"
)

type testEnv struct {
	cfg      config.LoginServer
	ctrl     *Controller
	accounts *testutil.AccountStore
	servers  *gameserver.GameServerTable
}

func newTestEnv(t testing.TB, mutate ...func(*config.LoginServer)) *testEnv {
	t.Helper()

	cfg := config.DefaultLoginServer()
	cfg.ServerNames = map[int]string{1: "Bartz", 2: "Sieghardt"}
	for _, m := range mutate {
		m(&cfg)
	}

	accounts := testutil.NewAccountStore()
	servers := gameserver.NewGameServerTable(testutil.NewGameServerStore(), cfg.ServerNames, nil, true)
	return &testEnv{
		cfg:      cfg,
		ctrl:     NewController(cfg, accounts, servers),
		accounts: accounts,
		servers:  servers,
	}
}

// addrConn подменяет RemoteAddr у net.Pipe.
type addrConn struct {
	net.Conn
	remote net.Addr
}

func (c *addrConn) RemoteAddr() net.Addr { return c.remote }

// newTestClient creates a Client on a pipe whose peer side is drained.
func newTestClient(t testing.TB, ip string) *Client {
	t.Helper()

	peer, server := testutil.PipeConn(t)
	go func() { _, _ = io.Copy(io.Discard, peer) }()

	conn := &addrConn{Conn: server, remote: &net.TCPAddr{IP: net.ParseIP(ip), Port: 50000}}
	enc, err := crypto.NewLoginEncryption(testutil.Fixtures.BlowfishKey)
	require.NoError(t, err)

	client, err := NewClient(conn, enc, testutil.Fixtures.RSAKey, protocol.NewBytePool(constants.DefaultSendBufSize))
	require.NoError(t, err)
	return client
}

type stubLink struct {
	mu        sync.Mutex
	online    []string
	kicked    []string
	requested []string
}

func (l *stubLink) HasAccount(account string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.online, account)
}

func (l *stubLink) PlayerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.online)
}

func (l *stubLink) KickPlayer(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kicked = append(l.kicked, account)
}

func (l *stubLink) RequestCharacters(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requested = append(l.requested, account)
}

func (l *stubLink) ChangePasswordResponse(bool, string, string) {}

// attachServer registers and authenticates game server id behind link.
func (e *testEnv) attachServer(t testing.TB, id int, link gameserver.Link, maxPlayers int) *gameserver.GameServerInfo {
	t.Helper()

	addr, err := gameserver.ParseAddress("0.0.0.0/0", "203.0.113.10")
	require.NoError(t, err)
	info, reason := e.servers.Authorize(context.Background(), gameserver.Registration{
		DesiredID:  id,
		HexID:      []byte{byte(id), 0xAB},
		Port:       7777,
		MaxPlayers: maxPlayers,
		Addresses:  []gameserver.Address{addr},
	}, link)
	require.Equal(t, gameserver.ReasonNone, reason)
	return info
}
