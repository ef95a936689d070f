// Package flood implements the admission guard that gates new TCP connections
// per source address before any protocol bytes are read.
package flood

import (
	"log/slog"
	"sync"
	"time"
)

// Config holds the three independent thresholds of the admission predicate.
type Config struct {
	Enabled bool

	// FastConnectionLimit — после стольких одновременных соединений начинает действовать NormalConnectionTime.
	FastConnectionLimit int
	// NormalConnectionTime — минимальный интервал между подключениями сверх FastConnectionLimit.
	NormalConnectionTime time.Duration
	// FastConnectionTime — минимальный интервал между любыми двумя подключениями.
	FastConnectionTime time.Duration
	// MaxConnectionPerIP — жёсткий предел одновременных соединений с адреса.
	MaxConnectionPerIP int
}

type entry struct {
	count      int
	last       time.Time
	isFlooding bool
}

// Guard tracks recent connections per source address.
// An entry lives only while its count is positive.
type Guard struct {
	name string
	cfg  Config
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewGuard creates a guard; name only labels log records.
func NewGuard(name string, cfg Config) *Guard {
	return &Guard{
		name:    name,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Allow registers a connection attempt from ip and reports whether it may proceed.
// Every allowed attempt must be paired with Release.
func (g *Guard) Allow(ip string) bool {
	if !g.cfg.Enabled {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	e, ok := g.entries[ip]
	if !ok {
		g.entries[ip] = &entry{count: 1, last: now}
		return true
	}

	e.count++
	elapsed := now.Sub(e.last)
	if (e.count > g.cfg.FastConnectionLimit && elapsed < g.cfg.NormalConnectionTime) ||
		elapsed < g.cfg.FastConnectionTime ||
		e.count > g.cfg.MaxConnectionPerIP {
		e.last = now
		e.count--
		if !e.isFlooding {
			slog.Warn("potential flood", "listener", g.name, "ip", ip, "connections", e.count)
		}
		e.isFlooding = true
		return false
	}

	if e.isFlooding {
		e.isFlooding = false
		slog.Info("address is not considered as flooding anymore", "listener", g.name, "ip", ip)
	}
	e.last = now
	return true
}

// Release drops one connection of ip from the table.
func (g *Guard) Release(ip string) {
	if !g.cfg.Enabled {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[ip]
	if !ok {
		slog.Warn("releasing flood entry that is not tracked", "listener", g.name, "ip", ip)
		return
	}
	e.count--
	if e.count <= 0 {
		delete(g.entries, ip)
	}
}

// Connections returns the tracked connection count for ip.
func (g *Guard) Connections(ip string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[ip]; ok {
		return e.count
	}
	return 0
}
