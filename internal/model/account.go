package model

import "time"

// Account is an account row as seen by one login attempt.
// It is fetched per attempt and never cached.
type Account struct {
	Login        string
	PasswordHash string
	// AccessLevel < 0 означает бан (постоянный или временный через account_data.ban_temp).
	AccessLevel int
	LastServer  int
	LastIP      string
	LastActive  time.Time
}

// Banned reports whether the account may not log in.
func (a *Account) Banned() bool {
	return a.AccessLevel < 0
}

// IPRuleType is the kind of an accounts_ipauth row.
type IPRuleType string

const (
	IPRuleAllow IPRuleType = "allow"
	IPRuleDeny  IPRuleType = "deny"
)

// IPRule restricts from which addresses an account may log in.
type IPRule struct {
	IP   string
	Type IPRuleType
}

// Tracert is the route a player's client reported through its game server.
type Tracert struct {
	PCIP string
	Hop1 string
	Hop2 string
	Hop3 string
	Hop4 string
}

// Account data keys used by the broker.
const (
	AccountDataBanTemp   = "ban_temp"
	AccountDataEmailAddr = "email_addr"
)
