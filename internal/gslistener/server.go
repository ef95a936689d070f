package gslistener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/flood"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/gslistener/serverpackets"
	"github.com/udisondev/la2login/internal/login"
	"github.com/udisondev/la2login/internal/protocol"
)

// ServerOption is a functional option for Server configuration.
type ServerOption func(*Server)

// WithNotifier replaces the default log notifier.
func WithNotifier(n Notifier) ServerOption {
	return func(s *Server) {
		s.notifier = n
	}
}

// WithMailer enables RequestSendMail.
func WithMailer(m Mailer) ServerOption {
	return func(s *Server) {
		s.mailer = m
	}
}

// Server представляет GameServer↔LoginServer TCP listener
type Server struct {
	cfg      config.LoginServer
	servers  *gameserver.GameServerTable
	handler  *Handler
	guard    *flood.Guard
	notifier Notifier
	mailer   Mailer

	sendPool *protocol.BytePool
	readPool *protocol.BytePool

	listener net.Listener
	mu       sync.Mutex
}

// NewServer создаёт GS listener поверх общего Controller.
// Каждое соединение получает свою RSA-512 пару от реестра гейм-серверов.
func NewServer(cfg config.LoginServer, ctrl *login.Controller, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		servers:  ctrl.Servers(),
		notifier: LogNotifier{},
		guard: flood.NewGuard("gameserver", flood.Config{
			Enabled:              cfg.FloodProtection,
			FastConnectionLimit:  cfg.FastConnectionLimit,
			NormalConnectionTime: cfg.NormalConnectionWindow(),
			FastConnectionTime:   cfg.FastConnectionWindow(),
			MaxConnectionPerIP:   cfg.MaxConnectionPerIP,
		}),
		sendPool: protocol.NewBytePool(constants.GSListenerSendBufSize),
		readPool: protocol.NewBytePool(constants.GSListenerReadBufSize),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.handler = NewHandler(ctrl, s.notifier, s.mailer)
	return s
}

// Addr возвращает адрес, на котором слушает GS listener.
// Возвращает nil если сервер ещё не запущен.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close закрывает listener и останавливает сервер.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run начинает прослушивание подключений от GameServer
// на cfg.GSListenHost:cfg.GSListenPort.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.GSListenHost, fmt.Sprint(s.cfg.GSListenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve принимает готовый listener и запускает accept loop.
// Возвращается после остановки ctx и завершения всех соединений.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ln = flood.Listener(ln, s.guard, nil)

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		slog.Info("GS listener started", "address", ln.Addr())
		acceptLoop(ctx, &wg, s, ln)
	})

	wg.Wait()
	return nil
}

func acceptLoop(
	ctx context.Context,
	wg *sync.WaitGroup,
	srv *Server,
	ln net.Listener,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept GS connection", "error", err)
				continue
			}
			wg.Go(func() {
				handleConnection(ctx, srv, conn)
			})
		}
	}
}

func handleConnection(ctx context.Context, srv *Server, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)

	rsaKeyPair, err := srv.servers.NewKeyPair()
	if err != nil {
		conn.Close()
		slog.Error("failed to generate GS key pair", "err", err, "remote", conn.RemoteAddr())
		return
	}
	gsConn, err := NewGSConnection(conn, rsaKeyPair, srv.sendPool)
	if err != nil {
		conn.Close()
		slog.Error("failed to create GS connection", "err", err, "remote", conn.RemoteAddr())
		return
	}
	defer gsConn.Close()

	go func() {
		select {
		case <-ctx.Done():
			gsConn.Close()
		case <-done:
		}
	}()

	slog.Info("GS connected", "ip", gsConn.IP())

	if err := gsConn.Send(func(buf []byte) int {
		return serverpackets.InitLS(buf, rsaKeyPair.ScrambledModulus)
	}); err != nil {
		slog.Error("failed to send InitLS packet", "err", err, "ip", gsConn.IP())
		return
	}

	var loopErr error
	for ctx.Err() == nil {
		ok, err := handlePacket(ctx, gsConn, srv)
		if err != nil {
			loopErr = err
		}
		if !ok {
			break
		}
	}
	srv.disconnect(gsConn, loopErr)
}

// disconnect снимает сервер с регистрации в реестре, привязка id ↔ hexID остаётся.
func (s *Server) disconnect(conn *GSConnection, cause error) {
	info := conn.GameServerInfo()
	if info == nil {
		slog.Info("GS disconnected", "ip", conn.IP(), "err", cause)
		return
	}

	id := info.ID()
	info.SetDown()
	msg := fmt.Sprintf("GameServer [%d] %s: Connection lost", id, s.servers.Name(id))
	if cause != nil {
		msg += ": " + cause.Error()
	}
	s.notifier.Notify(msg)
	slog.Info("game server set as disconnected", "server_id", id)
}

func handlePacket(
	ctx context.Context,
	conn *GSConnection,
	srv *Server,
) (bool, error) {
	readBuf := srv.readPool.Get()
	defer srv.readPool.Put(readBuf)

	data, err := protocol.ReadPacket(conn.conn, conn.enc, readBuf)
	if err != nil {
		return false, fmt.Errorf("read packet: %w", err)
	}

	sendBuf := srv.sendPool.Get()
	defer srv.sendPool.Put(sendBuf)

	n, ok, err := srv.handler.HandlePacket(ctx, conn, data, sendBuf[constants.PacketHeaderSize:])
	if err != nil {
		return false, fmt.Errorf("handle packet: %w", err)
	}

	if n > 0 {
		if err := conn.sendRaw(sendBuf, n); err != nil {
			return false, fmt.Errorf("write packet: %w", err)
		}
	}
	return ok, nil
}
