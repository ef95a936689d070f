package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLoginServer_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadLoginServer(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := DefaultLoginServer()
	assert.Equal(t, def.Port, cfg.Port)
	assert.Equal(t, 9013, cfg.GSListenPort)
	assert.Equal(t, 5, cfg.LoginTryBeforeBan)
	assert.Equal(t, 900*time.Second, cfg.LoginBlockDuration())
	assert.Equal(t, 700*time.Millisecond, cfg.NormalConnectionWindow())
	assert.Equal(t, 350*time.Millisecond, cfg.FastConnectionWindow())
	assert.Equal(t, "Bartz", cfg.ServerNames[1])
	assert.True(t, cfg.AcceptNewGameServer)
	assert.False(t, cfg.Mail.Enabled)
}

func TestLoadLoginServer_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loginserver.yaml")
	data := `
port: 2107
show_licence: false
login_timeout: 30s
server_names:
  1: Alpha
  2: Beta
mail:
  enabled: true
  templates:
    welcome:
      subject: "Hi %accountname%"
      body: "Welcome to %servername%"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadLoginServer(path)
	require.NoError(t, err)

	assert.Equal(t, 2107, cfg.Port)
	assert.False(t, cfg.ShowLicence)
	assert.Equal(t, 30*time.Second, cfg.LoginTimeout)
	assert.Equal(t, map[int]string{1: "Alpha", 2: "Beta"}, cfg.ServerNames)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, "Hi %accountname%", cfg.Mail.Templates["welcome"].Subject)
	// не указанные поля остаются по умолчанию
	assert.Equal(t, 9013, cfg.GSListenPort)
}

func TestLoadLoginServer_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1, 2"), 0o600))

	_, err := LoadLoginServer(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultLoginServer()
	require.NoError(t, cfg.Validate())

	cfg.Port = 0
	cfg.LoginTimeout = 0
	cfg.ServerNames = map[int]string{300: "Nope"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 0")
	assert.Contains(t, err.Error(), "login_timeout")
	assert.Contains(t, err.Error(), "id 300")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=disable", d.DSN())
}
