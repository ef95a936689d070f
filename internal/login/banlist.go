package login

import (
	"net/netip"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// BanList — таблица забаненных адресов. Истёкшая запись удаляется при первом
// поиске, который на неё наткнулся; остальные вычищает janitor go-cache.
type BanList struct {
	// mu делает «не найдено → удалить» атомарным относительно Add
	mu      sync.Mutex
	entries *cache.Cache
	now     func() time.Time
}

// BanEntry is one banned address as reported to operators.
type BanEntry struct {
	Address string
	// Expires is zero for a permanent ban.
	Expires time.Time
}

// NewBanList creates an empty table; expired entries are swept every cleanup.
func NewBanList(cleanup time.Duration) *BanList {
	return &BanList{
		entries: cache.New(cache.NoExpiration, cleanup),
		now:     time.Now,
	}
}

// Add bans address until expires (zero: forever). An existing entry is kept,
// already expired bans are ignored. Returns true if the entry was added.
func (b *BanList) Add(address string, expires time.Time) bool {
	ttl := cache.NoExpiration
	if !expires.IsZero() {
		ttl = expires.Sub(b.now())
		if ttl <= 0 {
			return false
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries.Add(address, expires, ttl) == nil
}

// Remove снимает бан. false — адреса в таблице не было.
func (b *BanList) Remove(address string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries.Get(address); !ok {
		b.entries.Delete(address)
		return false
	}
	b.entries.Delete(address)
	return true
}

// Contains reports whether address is banned, directly or through its
// a.b.c.0, a.b.0.0 or a.0.0.0 wildcard entry.
// An expired entry met on the way is removed.
func (b *BanList) Contains(address string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, key := range banKeys(address) {
		if _, ok := b.entries.Get(key); ok {
			return true
		}
		// Get не находит и отсутствующий, и истёкший ключ; для отсутствующего Delete — no-op
		b.entries.Delete(key)
	}
	return false
}

// List returns all unexpired entries.
func (b *BanList) List() []BanEntry {
	items := b.entries.Items()
	list := make([]BanEntry, 0, len(items))
	for addr, item := range items {
		list = append(list, BanEntry{Address: addr, Expires: item.Object.(time.Time)})
	}
	return list
}

// Len returns the number of unexpired entries.
func (b *BanList) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries.DeleteExpired()
	return b.entries.ItemCount()
}

func banKeys(address string) []string {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return []string{address}
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return []string{addr.String()}
	}
	ip := addr.As4()
	return []string{
		addr.String(),
		netip.AddrFrom4([4]byte{ip[0], ip[1], ip[2], 0}).String(),
		netip.AddrFrom4([4]byte{ip[0], ip[1], 0, 0}).String(),
		netip.AddrFrom4([4]byte{ip[0], 0, 0, 0}).String(),
	}
}
