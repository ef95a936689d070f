package gslistener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/login"
	"github.com/udisondev/la2login/internal/login/serverpackets"
	"github.com/udisondev/la2login/internal/testutil"
)

// startLoginServer runs the client listener on the same Controller as the GS listener.
func (e *testEnv) startLoginServer(t testing.TB) string {
	t.Helper()

	cfg := config.DefaultLoginServer()
	cfg.FloodProtection = false
	keys, err := crypto.NewRSAKeyPool(1, func() (*crypto.RSAKeyPair, error) {
		return testutil.Fixtures.RSAKey, nil
	})
	require.NoError(t, err)
	srv, err := login.NewServer(cfg, e.ctrl, login.WithRSAKeyPool(keys))
	require.NoError(t, err)

	ln, addr := testutil.ListenTCP(t)
	ctx, cancel := testutil.ContextWithCancel(t)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return addr
}

// Клиент логинится, выбирает сервер, гейм-сервер погашает ключ; повторный вход выбивает игрока.
func TestFullLoginFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.accounts.AddAccount("alice", "secret", 0)
	gs, info := env.registered(t, 1)
	loginAddr := env.startLoginServer(t)

	client, err := testutil.NewLoginClient(t, loginAddr)
	require.NoError(t, err)
	k1, k2, err := client.Login("alice", "secret")
	require.NoError(t, err)

	account, err := gs.ReadAccountRequest(testutil.OpRequestCharacters)
	require.NoError(t, err)
	assert.Equal(t, "alice", account)
	require.NoError(t, gs.Send(testutil.MakeReplyCharactersPacket("alice", 2)))

	require.NoError(t, client.SendRequestServerList(k1, k2))
	list, err := client.ReadServerList()
	require.NoError(t, err)
	assert.Equal(t, byte(1), list[1], "one registered server")

	require.NoError(t, client.SendRequestServerLogin(k1, k2, 1))
	p1, p2, err := client.ReadPlayOk()
	require.NoError(t, err)

	// гейм-сервер предъявляет ключ, который ему передал игровой клиент
	require.NoError(t, gs.Send(testutil.MakePlayerAuthRequestPacket("alice", p1, p2, k1, k2)))
	_, ok, err := gs.ReadPlayerAuthResponse()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, gs.Send(testutil.MakePlayerInGamePacket("alice")))
	require.Eventually(t, func() bool { return info.CurrentPlayerCount() == 1 }, eventually, 10*time.Millisecond)

	second, err := testutil.NewLoginClient(t, loginAddr)
	require.NoError(t, err)
	require.NoError(t, second.SendAuthGameGuard())
	_, err = second.Expect(testutil.OpGGAuth)
	require.NoError(t, err)
	require.NoError(t, second.SendRequestAuthLogin("alice", "secret"))

	body, err := second.Expect(testutil.OpLoginFail)
	require.NoError(t, err)
	assert.Equal(t, serverpackets.ReasonAccountInUse, body[1])

	kicked, err := gs.ReadAccountRequest(testutil.OpKickPlayer)
	require.NoError(t, err)
	assert.Equal(t, "alice", kicked)
}
