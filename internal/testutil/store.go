package testutil

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/la2login/internal/db"
	"github.com/udisondev/la2login/internal/model"
)

// AccountStore — in-memory хранилище аккаунтов для unit тестов.
// Не требует реального PostgreSQL, повторяет семантику PostgresAccountRepository.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	rules    map[string][]model.IPRule
	data     map[string]map[string]string
	tracerts map[string]model.Tracert
	err      error
}

// NewAccountStore создаёт пустое хранилище.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*model.Account),
		rules:    make(map[string][]model.IPRule),
		data:     make(map[string]map[string]string),
		tracerts: make(map[string]model.Tracert),
	}
}

// AddAccount заводит аккаунт с паролем в открытом виде.
func (s *AccountStore) AddAccount(login, password string, accessLevel int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[login] = &model.Account{
		Login:        login,
		PasswordHash: db.HashPassword(password),
		AccessLevel:  accessLevel,
	}
}

// FailWith makes every read return err (nil restores normal behaviour).
func (s *AccountStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetIPRules задаёт allow/deny списки аккаунта.
func (s *AccountStore) SetIPRules(login string, rules ...model.IPRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[login] = rules
}

// Account возвращает копию сохранённого аккаунта.
func (s *AccountStore) Account(login string) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[login]
	if !ok {
		return model.Account{}, false
	}
	return *acc, true
}

// Tracert returns the last stored route of login.
func (s *AccountStore) Tracert(login string) (model.Tracert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracerts[login]
	return t, ok
}

// AccountCount возвращает количество аккаунтов.
func (s *AccountStore) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *AccountStore) GetAccount(_ context.Context, login string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	acc, ok := s.accounts[strings.ToLower(login)]
	if !ok {
		return nil, nil
	}
	cp := *acc
	if v, ok := s.data[cp.Login][model.AccountDataBanTemp]; ok {
		if until, err := strconv.ParseInt(v, 10, 64); err == nil && until >= time.Now().UnixMilli() {
			cp.AccessLevel = -1
		}
	}
	return &cp, nil
}

func (s *AccountStore) CreateAccount(_ context.Context, login, passwordHash, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[login]; ok {
		return fmt.Errorf("account %q already exists", login)
	}
	s.accounts[login] = &model.Account{Login: login, PasswordHash: passwordHash, LastIP: ip, LastActive: time.Now()}
	return nil
}

func (s *AccountStore) UpdateLastLogin(_ context.Context, login, ip string) error {
	return s.update(login, func(acc *model.Account) {
		acc.LastIP = ip
		acc.LastActive = time.Now()
	})
}

func (s *AccountStore) UpdateLastServer(_ context.Context, login string, serverID int) error {
	return s.update(login, func(acc *model.Account) { acc.LastServer = serverID })
}

func (s *AccountStore) UpdateAccessLevel(_ context.Context, login string, level int) error {
	return s.update(login, func(acc *model.Account) { acc.AccessLevel = level })
}

func (s *AccountStore) UpdatePassword(_ context.Context, login, passwordHash string) error {
	return s.update(login, func(acc *model.Account) { acc.PasswordHash = passwordHash })
}

func (s *AccountStore) UpdateTracert(_ context.Context, login string, t model.Tracert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracerts[login] = t
	return nil
}

func (s *AccountStore) GetIPRules(_ context.Context, login string) ([]model.IPRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.rules[login]), nil
}

func (s *AccountStore) SetAccountData(_ context.Context, login, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[login] == nil {
		s.data[login] = make(map[string]string)
	}
	s.data[login][key] = value
	return nil
}

func (s *AccountStore) GetAccountData(_ context.Context, login, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.data[login][key]
	return v, ok, nil
}

func (s *AccountStore) update(login string, fn func(acc *model.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	acc, ok := s.accounts[strings.ToLower(login)]
	if !ok {
		return fmt.Errorf("account %q not found", login)
	}
	fn(acc)
	return nil
}

// GameServerStore — in-memory хранилище регистраций GameServer'ов.
type GameServerStore struct {
	mu      sync.Mutex
	records map[int]model.GameServerRecord
}

// NewGameServerStore создаёт хранилище с уже сохранёнными записями.
func NewGameServerStore(records ...model.GameServerRecord) *GameServerStore {
	s := &GameServerStore{records: make(map[int]model.GameServerRecord)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *GameServerStore) LoadGameServers(_ context.Context) ([]model.GameServerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Values(s.records)), nil
}

func (s *GameServerStore) RegisterGameServer(_ context.Context, rec model.GameServerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("game server %d already registered", rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

// Record возвращает сохранённую запись по ID.
func (s *GameServerStore) Record(id int) (model.GameServerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}
