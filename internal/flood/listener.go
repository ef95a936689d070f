package flood

import (
	"log/slog"
	"net"
	"sync"
)

// Filter decides whether a connection from ip is dropped before the guard sees it
// (ban list lookup on the client listener).
type Filter func(ip string) bool

// Listener wraps ln so that Accept only returns connections admitted by guard.
// Rejected connections are closed immediately. Closing an admitted connection
// releases its guard entry.
func Listener(ln net.Listener, guard *Guard, reject Filter) net.Listener {
	return &listener{Listener: ln, guard: guard, reject: reject}
}

type listener struct {
	net.Listener
	guard  *Guard
	reject Filter
}

func (l *listener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}

		ip := remoteIP(conn)
		if l.reject != nil && l.reject(ip) {
			slog.Debug("connection rejected by filter", "ip", ip)
			conn.Close()
			continue
		}
		if !l.guard.Allow(ip) {
			conn.Close()
			continue
		}
		return &guardedConn{Conn: conn, release: func() { l.guard.Release(ip) }}, nil
	}
}

type guardedConn struct {
	net.Conn
	once    sync.Once
	release func()
}

func (c *guardedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(c.release)
	return err
}

func remoteIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
