package gslistener

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/login"
	"github.com/udisondev/la2login/internal/model"
	"github.com/udisondev/la2login/internal/protocol"
	"github.com/udisondev/la2login/internal/testutil"
)

var testHexID = []byte{0xa1, 0xb2, 0xc3, 0xd4, 0xe5, 0xf6}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) has(prefix string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.ContainsFunc(n.msgs, func(m string) bool { return strings.HasPrefix(m, prefix) })
}

type sentMail struct {
	account string
	mailID  string
	args    []string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendMail(account, mailID string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{account: account, mailID: mailID, args: args})
}

func (m *recordingMailer) mails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

type testEnv struct {
	addr     string
	ctrl     *login.Controller
	accounts *testutil.AccountStore
	store    *testutil.GameServerStore
	servers  *gameserver.GameServerTable
	notes    *recordingNotifier
	mailer   *recordingMailer
}

type envOptions struct {
	records  []model.GameServerRecord
	noMailer bool
}

// newTestEnv starts a GS listener on loopback with in-memory stores.
func newTestEnv(t testing.TB, opts envOptions) *testEnv {
	t.Helper()

	cfg := config.DefaultLoginServer()
	cfg.ServerNames = map[int]string{1: "Bartz", 2: "Sieghardt"}
	cfg.FloodProtection = false

	env := &testEnv{
		accounts: testutil.NewAccountStore(),
		store:    testutil.NewGameServerStore(),
		notes:    &recordingNotifier{},
		mailer:   &recordingMailer{},
	}
	for _, r := range opts.records {
		require.NoError(t, env.store.RegisterGameServer(context.Background(), r))
	}
	env.servers = gameserver.NewGameServerTable(env.store, cfg.ServerNames, crypto.GenerateRSAKeyPair512, true)
	require.NoError(t, env.servers.Load(context.Background()))
	env.ctrl = login.NewController(cfg, env.accounts, env.servers)

	serverOpts := []ServerOption{WithNotifier(env.notes)}
	if !opts.noMailer {
		serverOpts = append(serverOpts, WithMailer(env.mailer))
	}
	srv := NewServer(cfg, env.ctrl, serverOpts...)

	ln, addr := testutil.ListenTCP(t)
	env.addr = addr

	ctx, cancel := testutil.ContextWithCancel(t)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return env
}

// registered connects a game server and authenticates it as id.
func (e *testEnv) registered(t testing.TB, id byte) (*testutil.GSClient, *gameserver.GameServerInfo) {
	t.Helper()

	gs, err := testutil.NewGSClient(t, e.addr)
	require.NoError(t, err)
	granted, err := gs.Register(id, testHexID, testutil.GSHost{Subnet: "0.0.0.0/0", Host: "203.0.113.10"})
	require.NoError(t, err)
	require.Equal(t, id, granted)

	info, ok := e.servers.GetByID(int(id))
	require.True(t, ok)
	return gs, info
}

// loginClient returns a client that holds the claim on account with a fresh session key.
func (e *testEnv) loginClient(t testing.TB, account string) (*login.Client, login.SessionKey) {
	t.Helper()

	peer, server := testutil.PipeConn(t)
	go func() { _, _ = io.Copy(io.Discard, peer) }()

	enc, err := crypto.NewLoginEncryption(testutil.Fixtures.BlowfishKey)
	require.NoError(t, err)
	client, err := login.NewClient(server, enc, testutil.Fixtures.RSAKey, protocol.NewBytePool(constants.DefaultSendBufSize))
	require.NoError(t, err)

	client.SetAccount(account)
	require.True(t, e.ctrl.Sessions().Claim(account, client))
	return client, e.ctrl.AssignSessionKey(client)
}
