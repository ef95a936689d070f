package login

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/db"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/login/serverpackets"
	"github.com/udisondev/la2login/internal/model"
)

// Сообщения ChangePasswordResponse, их показывает игровой клиент.
const (
	msgPasswordChanged    = "You have successfully changed your password!"
	msgPasswordNotChanged = "The password change was unsuccessful!"
	msgPasswordMismatch   = "The typed current password doesn't match with your current one."
	msgPasswordInvalid    = "Invalid password data! Try again."
)

// Controller is the login authority: credential checks, check-in, session keys,
// address bans and the timed-out client sweep. Both listeners share one Controller.
type Controller struct {
	cfg      config.LoginServer
	accounts AccountRepository
	servers  *gameserver.GameServerTable
	sessions *SessionManager
	bans     *BanList
	now      func() time.Time

	failMu   sync.Mutex
	failures map[string]int

	liveMu sync.Mutex
	live   map[*Client]struct{}
}

// NewController creates a Controller with empty session and ban tables.
func NewController(cfg config.LoginServer, accounts AccountRepository, servers *gameserver.GameServerTable) *Controller {
	return &Controller{
		cfg:      cfg,
		accounts: accounts,
		servers:  servers,
		sessions: NewSessionManager(),
		bans:     NewBanList(time.Minute),
		now:      time.Now,
		failures: make(map[string]int),
		live:     make(map[*Client]struct{}),
	}
}

// Sessions returns the account claim table.
func (c *Controller) Sessions() *SessionManager {
	return c.sessions
}

// Servers returns the game server registry.
func (c *Controller) Servers() *gameserver.GameServerTable {
	return c.servers
}

// Authenticate checks credentials of a login attempt from ip. Unknown accounts are
// created when auto-create is on. Wrong credentials count towards the address ban;
// err is set only when the account store failed.
func (c *Controller) Authenticate(ctx context.Context, ip, login, password string) (*model.Account, AuthResult, error) {
	if c.IsBanned(ip) {
		return nil, AuthAddressBanned, nil
	}

	hash := db.HashPassword(password)
	acc, err := c.accounts.GetAccount(ctx, login)
	if err != nil {
		return nil, AuthInvalidCredentials, fmt.Errorf("loading account %q: %w", login, err)
	}

	if acc == nil {
		if !c.cfg.AutoCreateAccounts {
			c.recordFailure(ip)
			return nil, AuthInvalidCredentials, nil
		}
		acc, err = c.createAccount(ctx, ip, login, hash)
		if err != nil {
			return nil, AuthInvalidCredentials, err
		}
	}

	if subtle.ConstantTimeCompare([]byte(acc.PasswordHash), []byte(hash)) != 1 {
		c.recordFailure(ip)
		return nil, AuthInvalidCredentials, nil
	}

	c.clearFailures(ip)
	return acc, AuthSuccess, nil
}

func (c *Controller) createAccount(ctx context.Context, ip, login, hash string) (*model.Account, error) {
	createErr := c.accounts.CreateAccount(ctx, login, hash, ip)

	// параллельный логин мог создать аккаунт раньше нас
	acc, err := c.accounts.GetAccount(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("reloading account %q: %w", login, err)
	}
	if acc == nil {
		if createErr != nil {
			return nil, createErr
		}
		return nil, fmt.Errorf("account %q not found after creation", login)
	}
	return acc, nil
}

func (c *Controller) recordFailure(ip string) {
	limit := c.cfg.LoginTryBeforeBan
	if limit <= 0 {
		return
	}

	c.failMu.Lock()
	c.failures[ip]++
	count := c.failures[ip]
	if count >= limit {
		delete(c.failures, ip)
	}
	c.failMu.Unlock()

	if count >= limit {
		c.BanAddress(ip, c.cfg.LoginBlockDuration())
		slog.Warn("address banned after failed logins", "client", ip, "attempts", count, "duration", c.cfg.LoginBlockDuration())
	}
}

func (c *Controller) clearFailures(ip string) {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	delete(c.failures, ip)
}

// FailedAttempts returns the consecutive failure count of ip.
func (c *Controller) FailedAttempts(ip string) int {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	return c.failures[ip]
}

// Checkin decides whether an authenticated account may continue on client.
// On success the account is claimed for client.
func (c *Controller) Checkin(ctx context.Context, client *Client, acc *model.Account) CheckinResult {
	if acc.Banned() {
		return CheckinAccountBanned
	}

	rules, err := c.accounts.GetIPRules(ctx, acc.Login)
	if err != nil {
		slog.Error("loading ip rules", "account", acc.Login, "err", err)
		return CheckinInvalidPassword
	}
	if !addressAllowed(client.Addr(), rules) {
		slog.Warn("login from address not allowed for account", "account", acc.Login, "client", client.IP())
		return CheckinInvalidPassword
	}

	client.setAccountInfo(acc.AccessLevel, acc.LastServer)
	if err := c.accounts.UpdateLastLogin(ctx, acc.Login, client.IP()); err != nil {
		slog.Error("failed to update last login", "account", acc.Login, "err", err)
	}

	if _, ok := c.servers.FindAccount(acc.Login); ok {
		return CheckinAlreadyOnGS
	}
	if !c.sessions.Claim(acc.Login, client) {
		return CheckinAlreadyOnLS
	}
	return CheckinSuccess
}

// addressAllowed applies the account's allow and deny lists. Unparsable rules are skipped.
func addressAllowed(addr netip.Addr, rules []model.IPRule) bool {
	var hasAllow, allowed bool
	for _, r := range rules {
		ip, err := netip.ParseAddr(r.IP)
		if err != nil {
			slog.Warn("skipping invalid ip rule", "ip", r.IP)
			continue
		}
		match := ip.Unmap() == addr
		switch r.Type {
		case model.IPRuleAllow:
			hasAllow = true
			allowed = allowed || match
		case model.IPRuleDeny:
			if match {
				return false
			}
		}
	}
	return !hasAllow || allowed
}

// AssignSessionKey issues a fresh session key to client.
func (c *Controller) AssignSessionKey(client *Client) SessionKey {
	sk := NewSessionKey()
	client.SetSessionKey(sk)
	return sk
}

// AuthedClient returns the client holding the account claim.
func (c *Controller) AuthedClient(account string) (*Client, bool) {
	return c.sessions.Get(account)
}

// ValidateSessionKey redeems a key presented by a game server. On success the
// account claim is released: the player now belongs to the game server.
func (c *Controller) ValidateSessionKey(account string, key SessionKey) bool {
	client, ok := c.sessions.Get(account)
	if !ok {
		return false
	}
	sk, issued := client.SessionKey()
	if !issued || !sk.Matches(key, c.cfg.ShowLicence) {
		return false
	}
	c.sessions.RemoveIf(account, client)
	return true
}

// RequestCharacters asks every connected game server for the account's characters.
func (c *Controller) RequestCharacters(account string) {
	for _, link := range c.servers.Links() {
		link.RequestCharacters(account)
	}
}

// SetCharactersOnServer stores a game server's character report on the waiting client.
func (c *Controller) SetCharactersOnServer(account string, chars int, deletions []int64, serverID int) {
	client, ok := c.sessions.Get(account)
	if !ok {
		return
	}
	client.SetCharacters(serverID, chars, deletions)
}

// IsLoginPossible reports whether client may join server id and remembers it as last server.
func (c *Controller) IsLoginPossible(ctx context.Context, client *Client, id int) bool {
	info, ok := c.servers.GetByID(id)
	if !ok || !info.CanLogin(client.AccessLevel()) {
		return false
	}

	if client.LastServer() != id {
		client.setLastServer(id)
		if err := c.accounts.UpdateLastServer(ctx, client.Account(), id); err != nil {
			slog.Error("failed to update last server", "account", client.Account(), "server_id", id, "err", err)
		}
	}
	return true
}

// SetAccountAccessLevel persists an access level change reported by a game server.
func (c *Controller) SetAccountAccessLevel(ctx context.Context, account string, level int) {
	if err := c.accounts.UpdateAccessLevel(ctx, account, level); err != nil {
		slog.Error("failed to update access level", "account", account, "level", level, "err", err)
	}
}

// SetAccountLastTracert persists the route reported for the account's client.
func (c *Controller) SetAccountLastTracert(ctx context.Context, account string, t model.Tracert) {
	if err := c.accounts.UpdateTracert(ctx, account, t); err != nil {
		slog.Error("failed to update tracert", "account", account, "err", err)
	}
}

// ChangePassword replaces the account password if current matches.
// Returns the outcome and the message shown to the player.
func (c *Controller) ChangePassword(ctx context.Context, account, current, next string) (bool, string) {
	if current == "" || next == "" {
		return false, msgPasswordInvalid
	}

	acc, err := c.accounts.GetAccount(ctx, account)
	if err != nil || acc == nil {
		slog.Error("change password: loading account", "account", account, "err", err)
		return false, msgPasswordNotChanged
	}
	if subtle.ConstantTimeCompare([]byte(acc.PasswordHash), []byte(db.HashPassword(current))) != 1 {
		return false, msgPasswordMismatch
	}
	if err := c.accounts.UpdatePassword(ctx, account, db.HashPassword(next)); err != nil {
		slog.Error("change password: updating", "account", account, "err", err)
		return false, msgPasswordNotChanged
	}

	slog.Info("password changed", "account", account)
	return true, msgPasswordChanged
}

// TempBan bans the account until expires and the address it played from.
// An empty ip (the game server did not know it) bans only the account.
func (c *Controller) TempBan(ctx context.Context, account, ip string, expires time.Time) {
	value := strconv.FormatInt(expires.UnixMilli(), 10)
	if err := c.accounts.SetAccountData(ctx, account, model.AccountDataBanTemp, value); err != nil {
		slog.Error("failed to store temporary ban", "account", account, "err", err)
	}
	if ip == "" {
		return
	}
	c.BanAddressUntil(ip, expires)
}

// IsBanned reports whether ip is banned directly or by a wildcard entry.
func (c *Controller) IsBanned(ip string) bool {
	return c.bans.Contains(ip)
}

// BanAddress bans ip for d; d <= 0 bans forever.
func (c *Controller) BanAddress(ip string, d time.Duration) {
	var expires time.Time
	if d > 0 {
		expires = c.now().Add(d)
	}
	c.bans.Add(ip, expires)
}

// BanAddressUntil bans ip until expires; zero bans forever.
func (c *Controller) BanAddressUntil(ip string, expires time.Time) {
	c.bans.Add(ip, expires)
}

// Unban lifts the ban of ip. Returns false if ip was not banned.
func (c *Controller) Unban(ip string) bool {
	return c.bans.Remove(ip)
}

// BannedAddresses lists the active bans.
func (c *Controller) BannedAddresses() []BanEntry {
	return c.bans.List()
}

// Kick disconnects account from the login server and asks the game server
// hosting it to drop the player. Returns false if the account was nowhere.
func (c *Controller) Kick(account string) bool {
	kicked := false
	if client, ok := c.sessions.Get(account); ok {
		c.sessions.RemoveIf(account, client)
		client.Close(serverpackets.ReasonAccessFailed)
		kicked = true
	}
	if info, ok := c.servers.FindAccount(account); ok {
		if link := info.Link(); link != nil {
			link.KickPlayer(account)
			kicked = true
		}
	}
	return kicked
}

// Track registers a live connection for the timeout sweep.
func (c *Controller) Track(client *Client) {
	c.liveMu.Lock()
	defer c.liveMu.Unlock()
	c.live[client] = struct{}{}
}

// OnDisconnect releases what client held. A client that already joined a game
// server keeps its claim until the login timeout, the hand-off may still be in flight.
func (c *Controller) OnDisconnect(client *Client) {
	c.liveMu.Lock()
	delete(c.live, client)
	c.liveMu.Unlock()

	account := client.Account()
	if account == "" {
		return
	}
	if !client.JoinedGS() || c.expired(client, c.now()) {
		c.sessions.RemoveIf(account, client)
	}
}

// LiveClients returns the number of open client connections.
func (c *Controller) LiveClients() int {
	c.liveMu.Lock()
	defer c.liveMu.Unlock()
	return len(c.live)
}

func (c *Controller) expired(client *Client, now time.Time) bool {
	return now.After(client.StartTime().Add(c.cfg.LoginTimeout))
}

// RunPurge closes timed-out clients every LoginTimeout/LoginPurgeDivisor until ctx is done.
func (c *Controller) RunPurge(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.LoginTimeout / constants.LoginPurgeDivisor)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.purge(c.now())
		}
	}
}

func (c *Controller) purge(now time.Time) {
	var stale []*Client

	c.liveMu.Lock()
	for client := range c.live {
		if c.expired(client, now) {
			stale = append(stale, client)
		}
	}
	c.liveMu.Unlock()

	c.sessions.Range(func(account string, client *Client) bool {
		if c.expired(client, now) {
			c.sessions.RemoveIf(account, client)
			stale = append(stale, client)
		}
		return true
	})

	for _, client := range stale {
		slog.Info("closing timed out client", "client", client.IP(), "account", client.Account())
		client.Close(serverpackets.ReasonAccessFailed)
	}
}
