//go:build integration

package db

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/la2login/internal/model"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresAccountRepository(setupTestDB(t))

	acc, err := repo.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, acc, "unknown account")

	require.NoError(t, repo.CreateAccount(ctx, "Alice", HashPassword("secret"), "10.0.0.5"))

	acc, err = repo.GetAccount(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, "alice", acc.Login)
	assert.Equal(t, HashPassword("secret"), acc.PasswordHash)
	assert.Equal(t, 0, acc.AccessLevel)
	assert.Equal(t, 1, acc.LastServer)
	assert.Equal(t, "10.0.0.5", acc.LastIP)
}

func TestAccountRepository_TempBanOverridesAccessLevel(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresAccountRepository(setupTestDB(t))
	now := time.UnixMilli(1_700_000_000_000)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.CreateAccount(ctx, "bob", HashPassword("pw"), "1.1.1.1"))

	expiry := now.Add(time.Hour).UnixMilli()
	require.NoError(t, repo.SetAccountData(ctx, "bob", model.AccountDataBanTemp, strconv.FormatInt(expiry, 10)))

	acc, err := repo.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, -1, acc.AccessLevel)
	assert.True(t, acc.Banned())

	now = now.Add(2 * time.Hour)
	acc, err = repo.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, acc.AccessLevel, "expired temp ban is ignored")
}

func TestAccountRepository_MalformedTempBanIgnored(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresAccountRepository(setupTestDB(t))

	for i, value := range []string{"", "soon", "-5", "12.5", "99999999999999999999"} {
		login := "carol" + strconv.Itoa(i)
		require.NoError(t, repo.CreateAccount(ctx, login, HashPassword("pw"), "1.1.1.1"))
		require.NoError(t, repo.SetAccountData(ctx, login, model.AccountDataBanTemp, value))

		acc, err := repo.GetAccount(ctx, login)
		require.NoError(t, err, "ban_temp %q", value)
		require.NotNil(t, acc)
		assert.Equal(t, 0, acc.AccessLevel, "ban_temp %q", value)
	}
}

func TestAccountRepository_Updates(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(t)
	repo := NewPostgresAccountRepository(pool)

	require.NoError(t, repo.CreateAccount(ctx, "carol", HashPassword("old"), "1.2.3.4"))
	require.NoError(t, repo.UpdateLastServer(ctx, "carol", 3))
	require.NoError(t, repo.UpdateAccessLevel(ctx, "carol", 100))
	require.NoError(t, repo.UpdateLastLogin(ctx, "carol", "5.6.7.8"))
	require.NoError(t, repo.UpdatePassword(ctx, "carol", HashPassword("new")))
	require.NoError(t, repo.UpdateTracert(ctx, "carol", model.Tracert{PCIP: "192.168.0.2", Hop1: "192.168.0.1", Hop2: "10.0.0.1"}))

	acc, err := repo.GetAccount(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 3, acc.LastServer)
	assert.Equal(t, 100, acc.AccessLevel)
	assert.Equal(t, "5.6.7.8", acc.LastIP)
	assert.Equal(t, HashPassword("new"), acc.PasswordHash)

	var pcIP, hop2 string
	require.NoError(t, pool.QueryRow(ctx, `SELECT pc_ip, hop2 FROM accounts WHERE login = 'carol'`).Scan(&pcIP, &hop2))
	assert.Equal(t, "192.168.0.2", pcIP)
	assert.Equal(t, "10.0.0.1", hop2)

	assert.Error(t, repo.UpdatePassword(ctx, "nobody", "x"))
}

func TestAccountRepository_IPRulesAndAccountData(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(t)
	repo := NewPostgresAccountRepository(pool)

	_, err := pool.Exec(ctx, `INSERT INTO accounts_ipauth (login, ip, type) VALUES
		('dave', '10.0.0.1', 'allow'), ('dave', '10.0.0.9', 'deny')`)
	require.NoError(t, err)

	rules, err := repo.GetIPRules(ctx, "Dave")
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.IPRule{
		{IP: "10.0.0.1", Type: model.IPRuleAllow},
		{IP: "10.0.0.9", Type: model.IPRuleDeny},
	}, rules)

	_, ok, err := repo.GetAccountData(ctx, "dave", model.AccountDataEmailAddr)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetAccountData(ctx, "dave", model.AccountDataEmailAddr, "a@b.c"))
	require.NoError(t, repo.SetAccountData(ctx, "dave", model.AccountDataEmailAddr, "d@e.f"))
	v, ok, err := repo.GetAccountData(ctx, "dave", model.AccountDataEmailAddr)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "d@e.f", v, "upsert replaces the value")
}

func TestGameServerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresGameServerRepository(setupTestDB(t))

	recs, err := repo.LoadGameServers(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.NoError(t, repo.RegisterGameServer(ctx, model.GameServerRecord{ID: 2, HexID: []byte{0xCA, 0xFE}, Host: ""}))
	require.NoError(t, repo.RegisterGameServer(ctx, model.GameServerRecord{ID: 1, HexID: []byte{0x01}}))
	assert.Error(t, repo.RegisterGameServer(ctx, model.GameServerRecord{ID: 1, HexID: []byte{0x02}}), "id already stored")

	recs, err = repo.LoadGameServers(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].ID)
	assert.Equal(t, []byte{0xCA, 0xFE}, recs[1].HexID)
}
