package login

import "sync"

// SessionManager — реестр аккаунтов, прошедших check-in и ещё не ушедших на GameServer.
// Единственная точка сериализации «аккаунт уже залогинен»: Claim атомарен.
// Thread-safe через sync.Map для оптимальной read performance.
type SessionManager struct {
	sessions sync.Map // map[string]*Client
}

// NewSessionManager создаёт новый SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

// Claim закрепляет аккаунт за клиентом. false — аккаунт уже занят.
func (sm *SessionManager) Claim(account string, client *Client) bool {
	_, loaded := sm.sessions.LoadOrStore(account, client)
	return !loaded
}

// Get возвращает клиента, владеющего аккаунтом.
func (sm *SessionManager) Get(account string) (*Client, bool) {
	val, ok := sm.sessions.Load(account)
	if !ok {
		return nil, false
	}
	return val.(*Client), true
}

// Remove удаляет сессию для аккаунта.
func (sm *SessionManager) Remove(account string) {
	sm.sessions.Delete(account)
}

// RemoveIf удаляет сессию, только если она всё ещё принадлежит client.
func (sm *SessionManager) RemoveIf(account string, client *Client) bool {
	return sm.sessions.CompareAndDelete(account, client)
}

// Count возвращает количество активных сессий.
func (sm *SessionManager) Count() int {
	count := 0
	sm.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Range вызывает fn для каждой сессии, пока fn возвращает true.
func (sm *SessionManager) Range(fn func(account string, client *Client) bool) {
	sm.sessions.Range(func(k, v any) bool {
		return fn(k.(string), v.(*Client))
	})
}
