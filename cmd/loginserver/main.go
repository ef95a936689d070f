package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/la2login/internal/config"
	"github.com/udisondev/la2login/internal/crypto"
	"github.com/udisondev/la2login/internal/db"
	"github.com/udisondev/la2login/internal/gameserver"
	"github.com/udisondev/la2login/internal/gslistener"
	"github.com/udisondev/la2login/internal/login"
	"github.com/udisondev/la2login/internal/mail"
)

const ConfigPath = "config/loginserver.yaml"

// restartExitCode сообщает обёртке запуска, что процесс надо поднять заново.
const restartExitCode = 2

var errScheduledRestart = errors.New("scheduled restart")

func main() {
	if err := app().Run(os.Args); err != nil {
		if errors.Is(err, errScheduledRestart) {
			slog.Info("exiting for scheduled restart")
			os.Exit(restartExitCode)
		}
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	app := cli.NewApp()
	app.Name = "loginserver"
	app.Usage = "Lineage 2 login server"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the login server config file",
			EnvVars: []string{"LA2GO_CONFIG"},
			Value:   ConfigPath,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Overrides log_level from the config (debug, info, warn, error)",
		},
	}
	app.Action = serve
	app.Commands = []*cli.Command{
		{
			Name:      "hash-password",
			Usage:     "Print the stored hash of a password",
			ArgsUsage: "<password>",
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return errors.New("exactly one password expected")
				}
				fmt.Println(db.HashPassword(c.Args().First()))
				return nil
			},
		},
	}
	return app
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadLoginServer(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level := cfg.LogLevel
	if l := c.String("log-level"); l != "" {
		level = l
	}
	setupLogger(level)

	slog.Info("la2go login server starting", "config", c.String("config"))
	return run(ctx, cfg)
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func run(ctx context.Context, cfg config.LoginServer) error {
	slog.Info("config loaded",
		"bind", cfg.BindAddress,
		"port", cfg.Port,
		"gs_listen", cfg.GSListenHost,
		"gs_port", cfg.GSListenPort,
		"auto_create", cfg.AutoCreateAccounts)

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	accounts := db.NewPostgresAccountRepository(database.Pool())

	servers := gameserver.NewGameServerTable(
		db.NewPostgresGameServerRepository(database.Pool()),
		cfg.ServerNames,
		crypto.GenerateRSAKeyPair512,
		cfg.AcceptNewGameServer,
	)
	if err := servers.Load(ctx); err != nil {
		return err
	}

	ctrl := login.NewController(cfg, accounts, servers)
	if _, err := ctrl.LoadBanFile(cfg.BanFile); err != nil {
		return fmt.Errorf("loading ban file: %w", err)
	}

	loginServer, err := login.NewServer(cfg, ctrl)
	if err != nil {
		return fmt.Errorf("creating login server: %w", err)
	}

	var gsOpts []gslistener.ServerOption
	var mailer *mail.Service
	if cfg.Mail.Enabled {
		mailer = mail.NewService(cfg.Mail, accounts, mail.NewSMTPSender(cfg.Mail))
		gsOpts = append(gsOpts, gslistener.WithMailer(mailer))
	}
	gsListener := gslistener.NewServer(cfg, ctrl, gsOpts...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := loginServer.Run(gctx); err != nil {
			return fmt.Errorf("login server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := gsListener.Run(gctx); err != nil {
			return fmt.Errorf("gslistener server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return ctrl.RunPurge(gctx)
	})
	if mailer != nil {
		g.Go(func() error {
			return mailer.Run(gctx)
		})
	}
	if cfg.RestartSchedule {
		g.Go(func() error {
			return scheduleRestart(gctx, cfg.RestartInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// scheduleRestart завершает errgroup через interval, остальные задачи видят отменённый ctx.
func scheduleRestart(ctx context.Context, interval time.Duration) error {
	slog.Info("scheduled restart armed", "in", interval)
	t := time.NewTimer(interval)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-t.C:
		return errScheduledRestart
	}
}
