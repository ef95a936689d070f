package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoginServer holds all configuration for the login server.
type LoginServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// GameServer listener
	GSListenHost string `yaml:"gs_listen_host"`
	GSListenPort int    `yaml:"gs_listen_port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	LogLevel string `yaml:"log_level"`

	// Accounts
	AutoCreateAccounts bool `yaml:"auto_create_accounts"`
	ShowLicence        bool `yaml:"show_licence"`
	LoginTryBeforeBan  int  `yaml:"login_try_before_ban"`
	LoginBlockAfterBan int  `yaml:"login_block_after_ban"` // seconds

	// LoginTimeout — сколько клиент может висеть в реестре сессий, не уйдя на гейм-сервер.
	LoginTimeout time.Duration `yaml:"login_timeout"`

	// CloseOnPlayFail закрывает соединение после PlayFail вместо ожидания следующего запроса.
	CloseOnPlayFail bool `yaml:"close_on_play_fail"`

	// Game servers
	AcceptNewGameServer bool `yaml:"accept_new_gameserver"`
	// ServerNames — отображаемые имена; свободный ID ищется только среди них.
	// Пусто в конфиге: DefaultServerNames.
	ServerNames map[int]string `yaml:"server_names"`

	// Flood protection
	FloodProtection      bool `yaml:"flood_protection"`
	FastConnectionLimit  int  `yaml:"fast_connection_limit"`
	NormalConnectionTime int  `yaml:"normal_connection_time"` // ms
	FastConnectionTime   int  `yaml:"fast_connection_time"`   // ms
	MaxConnectionPerIP   int  `yaml:"max_connection_per_ip"`

	// BanFile is loaded once at startup, missing file is not an error.
	BanFile string `yaml:"ban_file"`

	// Scheduled restart: the process exits with code 2 after RestartInterval.
	RestartSchedule bool          `yaml:"restart_schedule"`
	RestartInterval time.Duration `yaml:"restart_interval"`

	Mail Mail `yaml:"mail"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Mail configures the outbound mail collaborator.
type Mail struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	From         string `yaml:"from"`

	// ServerName and ServerMail fill %servername% and %servermail%.
	ServerName string `yaml:"server_name"`
	ServerMail string `yaml:"server_mail"`

	Templates map[string]MailTemplate `yaml:"templates"`
}

// MailTemplate is one message type requested by game servers.
type MailTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// LoginBlockDuration returns LoginBlockAfterBan as a duration.
func (c LoginServer) LoginBlockDuration() time.Duration {
	return time.Duration(c.LoginBlockAfterBan) * time.Second
}

// NormalConnectionWindow returns NormalConnectionTime as a duration.
func (c LoginServer) NormalConnectionWindow() time.Duration {
	return time.Duration(c.NormalConnectionTime) * time.Millisecond
}

// FastConnectionWindow returns FastConnectionTime as a duration.
func (c LoginServer) FastConnectionWindow() time.Duration {
	return time.Duration(c.FastConnectionTime) * time.Millisecond
}

// DefaultServerNames is the head of the classic server name list.
func DefaultServerNames() map[int]string {
	names := []string{
		"Bartz", "Sieghardt", "Kain", "Lionna", "Erica", "Gustin", "Devianne", "Hindemith",
		"Teon", "Franz", "Luna", "Kastien", "Airin", "Staris", "Ceriel", "Fehyshar",
		"Elhwynna", "Ellikia", "Shikken", "Scryde", "Frikios", "Ophylia", "Shakdun", "Tarziph",
	}
	m := make(map[int]string, len(names))
	for i, n := range names {
		m[i+1] = n
	}
	return m
}

// DefaultLoginServer returns LoginServer config with sensible defaults.
func DefaultLoginServer() LoginServer {
	return LoginServer{
		BindAddress:          "0.0.0.0",
		Port:                 2106,
		GSListenHost:         "127.0.0.1",
		GSListenPort:         9013,
		LogLevel:             "info",
		AutoCreateAccounts:   true,
		ShowLicence:          true,
		LoginTryBeforeBan:    5,
		LoginBlockAfterBan:   900,
		LoginTimeout:         60 * time.Second,
		AcceptNewGameServer:  true,
		FloodProtection:      true,
		FastConnectionLimit:  15,
		NormalConnectionTime: 700,
		FastConnectionTime:   350,
		MaxConnectionPerIP:   50,
		BanFile:              "config/banned_ip.cfg",
		RestartInterval:      24 * time.Hour,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "la2login",
			Password: "la2login",
			DBName:   "la2login",
			SSLMode:  "disable",
		},
		Mail: Mail{
			SMTPHost:   "smtp.gmail.com",
			SMTPPort:   465,
			From:       "noreply@example.com",
			ServerName: "L2 Server",
			ServerMail: "noreply@example.com",
			Templates:  map[string]MailTemplate{},
		},
	}
}

// LoadLoginServer loads login server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadLoginServer(path string) (LoginServer, error) {
	cfg := DefaultLoginServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ServerNames = DefaultServerNames()
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	// yaml.v3 сливает map с уже заполненной, поэтому имена по умолчанию ставим только после разбора
	if len(cfg.ServerNames) == 0 {
		cfg.ServerNames = DefaultServerNames()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the broker cannot run with.
func (c LoginServer) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.GSListenPort <= 0 || c.GSListenPort > 65535 {
		errs = append(errs, fmt.Errorf("gs_listen_port %d out of range", c.GSListenPort))
	}
	if c.LoginTimeout <= 0 {
		errs = append(errs, errors.New("login_timeout must be positive"))
	}
	if c.RestartSchedule && c.RestartInterval <= 0 {
		errs = append(errs, errors.New("restart_interval must be positive when restart_schedule is on"))
	}
	for id := range c.ServerNames {
		if id <= 0 || id > 255 {
			errs = append(errs, fmt.Errorf("server_names: id %d out of range 1..255", id))
		}
	}
	return errors.Join(errs...)
}
