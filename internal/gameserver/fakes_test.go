package gameserver

import (
	"context"
	"sync"

	"github.com/udisondev/la2login/internal/model"
)

type memStore struct {
	mu      sync.Mutex
	records []model.GameServerRecord
	err     error
}

func (s *memStore) LoadGameServers(context.Context) ([]model.GameServerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.GameServerRecord(nil), s.records...), s.err
}

func (s *memStore) RegisterGameServer(_ context.Context, rec model.GameServerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

type stubLink struct {
	mu       sync.Mutex
	accounts map[string]bool
	kicked   []string
}

func newStubLink(accounts ...string) *stubLink {
	l := &stubLink{accounts: make(map[string]bool)}
	for _, a := range accounts {
		l.accounts[a] = true
	}
	return l
}

func (l *stubLink) HasAccount(account string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[account]
}

func (l *stubLink) PlayerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.accounts)
}

func (l *stubLink) KickPlayer(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kicked = append(l.kicked, account)
}

func (l *stubLink) RequestCharacters(string)                    {}
func (l *stubLink) ChangePasswordResponse(bool, string, string) {}
