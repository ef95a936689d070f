package gameserver

import (
	"bytes"
	"net/netip"
	"sync"
	"sync/atomic"
)

// Link is the live connection of an authenticated GameServer.
type Link interface {
	// HasAccount reports whether account is currently online on the server.
	HasAccount(account string) bool
	PlayerCount() int
	KickPlayer(account string)
	RequestCharacters(account string)
	ChangePasswordResponse(ok bool, character, message string)
}

// GameServerInfo хранит информацию о зарегистрированном GameServer.
// Привязка id ↔ hexID переживает отключение, всё остальное сбрасывается в SetDown.
type GameServerInfo struct {
	mu sync.RWMutex

	id         int
	hexID      []byte
	link       Link
	port       int
	maxPlayers int
	status     int
	serverType int
	ageLimit   int
	addresses  []Address

	// isAuthed использует atomic для visibility между goroutines
	isAuthed atomic.Bool

	// showingBrackets - показывать ли [brackets] в списке серверов
	showingBrackets bool
}

// NewGameServerInfo создаёт новый GameServerInfo в состоянии DOWN.
func NewGameServerInfo(id int, hexID []byte) *GameServerInfo {
	return &GameServerInfo{
		id:     id,
		hexID:  bytes.Clone(hexID),
		status: StatusDown,
	}
}

// ID возвращает ID сервера.
func (gsi *GameServerInfo) ID() int {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.id
}

// SetID устанавливает ID сервера.
func (gsi *GameServerInfo) SetID(id int) {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.id = id
}

// HexID возвращает hex ID сервера.
func (gsi *GameServerInfo) HexID() []byte {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.hexID
}

// IsAuthed возвращает true, если GS аутентифицирован (thread-safe).
func (gsi *GameServerInfo) IsAuthed() bool {
	return gsi.isAuthed.Load()
}

// Link возвращает живое соединение (nil пока сервер не подключён).
func (gsi *GameServerInfo) Link() Link {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.link
}

// Attach binds a freshly authenticated connection to this entry.
// Returns false if another connection already holds it.
func (gsi *GameServerInfo) Attach(link Link, port, maxPlayers int, addresses []Address) bool {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()

	if gsi.isAuthed.Load() {
		return false
	}
	gsi.link = link
	gsi.port = port
	gsi.maxPlayers = maxPlayers
	gsi.addresses = append([]Address(nil), addresses...)
	gsi.isAuthed.Store(true)
	return true
}

// Port возвращает порт GS для клиентов.
func (gsi *GameServerInfo) Port() int {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.port
}

// MaxPlayers возвращает максимальное число игроков.
func (gsi *GameServerInfo) MaxPlayers() int {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.maxPlayers
}

// SetMaxPlayers устанавливает максимальное число игроков.
func (gsi *GameServerInfo) SetMaxPlayers(max int) {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.maxPlayers = max
}

// CurrentPlayerCount returns the number of accounts the server reported online.
func (gsi *GameServerInfo) CurrentPlayerCount() int {
	link := gsi.Link()
	if link == nil {
		return 0
	}
	return link.PlayerCount()
}

// Status возвращает текущий статус сервера.
func (gsi *GameServerInfo) Status() int {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.status
}

// SetStatus устанавливает статус сервера.
func (gsi *GameServerInfo) SetStatus(status int) {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.status = status
}

// ServerType возвращает тип сервера.
func (gsi *GameServerInfo) ServerType() int {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.serverType
}

// SetServerType устанавливает тип сервера.
func (gsi *GameServerInfo) SetServerType(serverType int) {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.serverType = serverType
}

// AgeLimit возвращает возрастное ограничение.
func (gsi *GameServerInfo) AgeLimit() int {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.ageLimit
}

// SetAgeLimit устанавливает возрастное ограничение.
func (gsi *GameServerInfo) SetAgeLimit(ageLimit int) {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.ageLimit = ageLimit
}

// ShowingBrackets возвращает флаг показа [brackets].
func (gsi *GameServerInfo) ShowingBrackets() bool {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return gsi.showingBrackets
}

// SetShowingBrackets устанавливает флаг показа [brackets].
func (gsi *GameServerInfo) SetShowingBrackets(show bool) {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.showingBrackets = show
}

// IsPvP is always true: the list format has the flag but nothing ever clears it.
func (gsi *GameServerInfo) IsPvP() bool {
	return true
}

// Addresses возвращает копию списка адресов.
func (gsi *GameServerInfo) Addresses() []Address {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	return append([]Address(nil), gsi.addresses...)
}

// ServerAddress returns the host advertised to a client at ip.
// The first matching subnet wins; "" when none matches.
func (gsi *GameServerInfo) ServerAddress(ip netip.Addr) string {
	gsi.mu.RLock()
	defer gsi.mu.RUnlock()
	for _, a := range gsi.addresses {
		if a.Contains(ip) {
			return a.Host
		}
	}
	return ""
}

// ExternalHost is the host advertised to the whole internet (subnet containing 0.0.0.0).
func (gsi *GameServerInfo) ExternalHost() string {
	return gsi.ServerAddress(netip.IPv4Unspecified())
}

// CanLogin reports whether a player with accessLevel may join: the server must be
// up, and either not full and not GM-only, or the player must be privileged.
func (gsi *GameServerInfo) CanLogin(accessLevel int) bool {
	if !gsi.IsAuthed() {
		return false
	}
	if accessLevel > 0 {
		return true
	}
	return gsi.CurrentPlayerCount() < gsi.MaxPlayers() && gsi.Status() != StatusGMOnly
}

// SetDown помечает сервер как offline и отвязывает соединение.
func (gsi *GameServerInfo) SetDown() {
	gsi.mu.Lock()
	defer gsi.mu.Unlock()
	gsi.isAuthed.Store(false)
	gsi.link = nil
	gsi.port = 0
	gsi.status = StatusDown
}
