package gameserver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/model"
)

// Store persists id ↔ hexID registrations.
type Store interface {
	LoadGameServers(ctx context.Context) ([]model.GameServerRecord, error)
	RegisterGameServer(ctx context.Context, rec model.GameServerRecord) error
}

// Registration — данные запроса GameServerAuth, нужные реестру.
type Registration struct {
	DesiredID           int
	AcceptAlternativeID bool
	HexID               []byte
	Port                int
	MaxPlayers          int
	Addresses           []Address
}

// GameServerTable — registry всех зарегистрированных GameServer'ов.
// Thread-safe через sync.RWMutex: выдача ID и проверка занятости выполняются
// под одной блокировкой, два сервера не получат один ID.
type GameServerTable struct {
	store      Store
	newKeys    crypto.KeyGenerator
	acceptNew  bool
	names      map[int]string
	orderedIDs []int

	mu      sync.RWMutex
	servers map[int]*GameServerInfo
}

// NewGameServerTable создаёт новую таблицу GameServer'ов.
// names задаёт допустимые ID и их отображаемые имена; newKeys выдаёт RSA-512 пару
// на каждое соединение GameServer (nil = crypto.GenerateRSAKeyPair512);
// acceptNew разрешает регистрацию новых серверов.
func NewGameServerTable(store Store, names map[int]string, newKeys crypto.KeyGenerator, acceptNew bool) *GameServerTable {
	names = maps.Clone(names)
	if newKeys == nil {
		newKeys = crypto.GenerateRSAKeyPair512
	}
	return &GameServerTable{
		store:      store,
		newKeys:    newKeys,
		acceptNew:  acceptNew,
		names:      names,
		orderedIDs: slices.Sorted(maps.Keys(names)),
		servers:    make(map[int]*GameServerInfo),
	}
}

// Load загружает зарегистрированные GameServer'ы из хранилища.
func (gst *GameServerTable) Load(ctx context.Context) error {
	records, err := gst.store.LoadGameServers(ctx)
	if err != nil {
		return fmt.Errorf("loading gameservers: %w", err)
	}

	gst.mu.Lock()
	defer gst.mu.Unlock()
	for _, rec := range records {
		gst.servers[rec.ID] = NewGameServerInfo(rec.ID, rec.HexID)
	}

	slog.Info("registered game servers loaded", "count", len(records), "names", len(gst.names))
	return nil
}

// GetByID возвращает GameServerInfo по ID.
func (gst *GameServerTable) GetByID(id int) (*GameServerInfo, bool) {
	gst.mu.RLock()
	defer gst.mu.RUnlock()

	info, ok := gst.servers[id]
	return info, ok
}

// Register регистрирует GameServer с указанным ID.
// Возвращает false, если ID уже занят.
func (gst *GameServerTable) Register(id int, info *GameServerInfo) bool {
	gst.mu.Lock()
	defer gst.mu.Unlock()

	if _, exists := gst.servers[id]; exists {
		return false
	}
	info.SetID(id)
	gst.servers[id] = info
	return true
}

// RegisterWithFirstAvailableID регистрирует GameServer с первым свободным ID
// среди известных имён (по возрастанию). Возвращает присвоенный ID и true при успехе.
func (gst *GameServerTable) RegisterWithFirstAvailableID(info *GameServerInfo) (int, bool) {
	gst.mu.Lock()
	defer gst.mu.Unlock()

	id := gst.firstAvailableID()
	if id == 0 {
		return 0, false
	}
	info.SetID(id)
	gst.servers[id] = info
	return id, true
}

// firstAvailableID вызывается под gst.mu. Возвращает 0 если свободных ID нет.
func (gst *GameServerTable) firstAvailableID() int {
	for _, id := range gst.orderedIDs {
		if _, taken := gst.servers[id]; !taken {
			return id
		}
	}
	return 0
}

// Authorize resolves a GameServerAuth request and binds link to the resulting entry:
//  1. desired ID registered with the same hexID: reuse it unless a connection already holds it;
//  2. desired ID registered with another hexID: take the first free ID if new servers
//     are accepted and the server agrees to an alternative ID;
//  3. desired ID free: register it if new servers are accepted.
//
// New registrations are persisted. On failure info is nil and reason says why.
func (gst *GameServerTable) Authorize(ctx context.Context, reg Registration, link Link) (*GameServerInfo, FailReason) {
	info, isNew, reason := gst.claim(reg)
	if reason != ReasonNone {
		return nil, reason
	}

	if !info.Attach(link, reg.Port, reg.MaxPlayers, reg.Addresses) {
		return nil, ReasonAlreadyLoggedIn
	}

	if isNew {
		rec := model.GameServerRecord{ID: info.ID(), HexID: info.HexID(), Host: info.ExternalHost()}
		if err := gst.store.RegisterGameServer(ctx, rec); err != nil {
			slog.Error("failed to persist game server", "server_id", rec.ID, "err", err)
		}
	}
	return info, ReasonNone
}

func (gst *GameServerTable) claim(reg Registration) (*GameServerInfo, bool, FailReason) {
	gst.mu.Lock()
	defer gst.mu.Unlock()

	if existing, ok := gst.servers[reg.DesiredID]; ok {
		if bytes.Equal(existing.HexID(), reg.HexID) {
			if existing.IsAuthed() {
				return nil, false, ReasonAlreadyLoggedIn
			}
			return existing, false, ReasonNone
		}

		if !gst.acceptNew || !reg.AcceptAlternativeID {
			return nil, false, ReasonWrongHexID
		}
		id := gst.firstAvailableID()
		if id == 0 {
			return nil, false, ReasonNoFreeID
		}
		info := NewGameServerInfo(id, reg.HexID)
		gst.servers[id] = info
		return info, true, ReasonNone
	}

	if !gst.acceptNew {
		return nil, false, ReasonWrongHexID
	}
	info := NewGameServerInfo(reg.DesiredID, reg.HexID)
	gst.servers[reg.DesiredID] = info
	return info, true, ReasonNone
}

// ValidateHexID проверяет, что HexID совпадает с зарегистрированным для данного ID.
func (gst *GameServerTable) ValidateHexID(id int, hexID []byte) bool {
	info, ok := gst.GetByID(id)
	if !ok {
		return false
	}
	return bytes.Equal(info.HexID(), hexID)
}

// List возвращает все зарегистрированные GameServer'ы, отсортированные по ID.
func (gst *GameServerTable) List() []*GameServerInfo {
	gst.mu.RLock()
	servers := make([]*GameServerInfo, 0, len(gst.servers))
	for _, info := range gst.servers {
		servers = append(servers, info)
	}
	gst.mu.RUnlock()

	slices.SortFunc(servers, func(a, b *GameServerInfo) int { return a.ID() - b.ID() })
	return servers
}

// FindAccount returns the authenticated server on which account is online.
func (gst *GameServerTable) FindAccount(account string) (*GameServerInfo, bool) {
	for _, info := range gst.List() {
		if link := info.Link(); link != nil && link.HasAccount(account) {
			return info, true
		}
	}
	return nil, false
}

// Links returns the connections of all authenticated servers.
func (gst *GameServerTable) Links() []Link {
	var links []Link
	for _, info := range gst.List() {
		if link := info.Link(); link != nil {
			links = append(links, link)
		}
	}
	return links
}

// Remove удаляет GameServer по ID.
func (gst *GameServerTable) Remove(id int) {
	gst.mu.Lock()
	defer gst.mu.Unlock()
	delete(gst.servers, id)
}

// Name возвращает отображаемое имя сервера ("" если ID неизвестен).
func (gst *GameServerTable) Name(id int) string {
	return gst.names[id]
}

// NewKeyPair generates the RSA-512 pair for one GameServer connection.
// Pairs are never shared between connections.
func (gst *GameServerTable) NewKeyPair() (*crypto.RSAKeyPair, error) {
	kp, err := gst.newKeys()
	if err != nil {
		return nil, fmt.Errorf("game server key pair: %w", err)
	}
	return kp, nil
}
