package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/constants"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/flood"
	"github.com/udisondev/la2login/internal/login/serverpackets"
	"github.com/udisondev/la2login/internal/protocol"
)

// ServerOption is a functional option for Server configuration.
type ServerOption func(*Server)

// WithRSAKeyPool sets pre-generated client RSA keys (useful for testing: generation is slow).
func WithRSAKeyPool(pool *crypto.RSAKeyPool) ServerOption {
	return func(s *Server) {
		s.rsaKeys = pool
	}
}

// Server is the LoginServer that accepts client connections on port 2106.
type Server struct {
	cfg     config.LoginServer
	ctrl    *Controller
	handler *Handler
	guard   *flood.Guard

	rsaKeys  *crypto.RSAKeyPool
	bfKeys   *crypto.BlowfishKeyPool
	sendPool *protocol.BytePool
	readPool *protocol.BytePool

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a new LoginServer with pre-generated RSA key pairs and Blowfish keys.
func NewServer(cfg config.LoginServer, ctrl *Controller, opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		handler: NewHandler(ctrl, cfg),
		guard: flood.NewGuard("client", flood.Config{
			Enabled:              cfg.FloodProtection,
			FastConnectionLimit:  cfg.FastConnectionLimit,
			NormalConnectionTime: cfg.NormalConnectionWindow(),
			FastConnectionTime:   cfg.FastConnectionWindow(),
			MaxConnectionPerIP:   cfg.MaxConnectionPerIP,
		}),
		sendPool: protocol.NewBytePool(constants.DefaultSendBufSize),
		readPool: protocol.NewBytePool(constants.DefaultReadBufSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.rsaKeys == nil {
		pool, err := crypto.NewRSAKeyPool(constants.RSAKeyPairPoolSize, crypto.GenerateRSAKeyPair)
		if err != nil {
			return nil, fmt.Errorf("client rsa keys: %w", err)
		}
		s.rsaKeys = pool
	}

	bf, err := crypto.NewBlowfishKeyPool(constants.BlowfishKeyPoolSize, constants.BlowfishKeySize)
	if err != nil {
		return nil, fmt.Errorf("client blowfish keys: %w", err)
	}
	s.bfKeys = bf

	return s, nil
}

// Addr возвращает адрес, на котором слушает сервер.
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

// Run begins listening for client connections.
// Создаёт listener на cfg.BindAddress:cfg.Port и запускает accept loop.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.BindAddress, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve принимает готовый listener и запускает accept loop.
// Адреса из бан-листа и флудящие адреса отбрасываются до отправки Init.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ln = flood.Listener(ln, s.guard, s.ctrl.IsBanned)

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		slog.Info("login server started", "address", ln.Addr())
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
				slog.Error("Failed to accept new connection", "error", err)
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
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	rsaKeyPair := srv.rsaKeys.Random()
	bfKey := srv.bfKeys.Random()

	enc, err := crypto.NewLoginEncryption(bfKey)
	if err != nil {
		slog.Error("failed to create login encryption", "err", err, "remote", conn.RemoteAddr())
		return
	}

	client, err := NewClient(conn, enc, rsaKeyPair, srv.sendPool)
	if err != nil {
		slog.Error("failed to create client", "err", err, "remote", conn.RemoteAddr())
		return
	}
	slog.Info("new connection", "client", client.IP())

	srv.ctrl.Track(client)
	defer srv.ctrl.OnDisconnect(client)

	// Init уходит под статическим ключом, LoginEncryption переключается сама
	if err := client.Send(func(buf []byte) int {
		return serverpackets.Init(buf, client.SessionID(), rsaKeyPair.ScrambledModulus, bfKey)
	}); err != nil {
		slog.Error("failed to send Init packet", "err", err, "client", client.IP())
		return
	}
	slog.Debug("Init packet sent", "client", client.IP(), "sessionId", client.SessionID())

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if ok, err := handlePacket(ctx, client, enc, srv); !ok {
				if err != nil && !client.Closed() {
					slog.Debug("client connection closed", "client", client.IP(), "err", err)
				}
				return
			} else if err != nil {
				slog.Error("Failed to handle packet", "client", client.IP(), "error", err)
			}
		}
	}
}

func handlePacket(
	ctx context.Context,
	cli *Client,
	enc *crypto.LoginEncryption,
	srv *Server,
) (bool, error) {
	readBuf := srv.readPool.Get()
	defer srv.readPool.Put(readBuf)
	data, err := protocol.ReadPacket(cli.conn, enc, readBuf)
	if err != nil {
		return false, fmt.Errorf("read packet: %w", err)
	}

	sendBuf := srv.sendPool.Get()
	defer srv.sendPool.Put(sendBuf)

	// Handler writes response payload into sendBuf[2:]
	n, ok, err := srv.handler.HandlePacket(ctx, cli, data, sendBuf[2:])
	if err != nil {
		return false, fmt.Errorf("handle packet: %w", err)
	}

	if n > 0 {
		if err := cli.sendRaw(sendBuf, n); err != nil {
			return false, fmt.Errorf("write packet: %w", err)
		}
	}
	if !ok {
		cli.closeConn()
	}

	return ok, nil
}
