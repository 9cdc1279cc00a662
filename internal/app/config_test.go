package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultBackupCron, cfg.BackupCron)
	assert.False(t, cfg.EditMode)
	assert.True(t, cfg.BackupsEnabled())
	assert.Equal(t, DemoLogin{Email: "admin@sagrecampania.it", Password: "admin123"}, cfg.DemoLogin)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen: ":9090"
data_dir: /var/lib/sagre
edit_mode: true
backup_cron: "off"
site_name: Sagre del Cilento
demo_login:
  email: demo@example.com
  password: demo
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/var/lib/sagre", cfg.DataDir)
	assert.True(t, cfg.EditMode)
	assert.False(t, cfg.BackupsEnabled())
	assert.Equal(t, "Sagre del Cilento", cfg.SiteName)
	assert.Equal(t, DemoLogin{Email: "demo@example.com", Password: "demo"}, cfg.DemoLogin)
	// unset keys keep their defaults
	assert.Equal(t, DefaultTimezone, cfg.Timezone)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\n"), 0600))

	t.Setenv("SAGRE_LISTEN", ":7070")
	t.Setenv("SAGRE_EDIT_MODE", "true")
	t.Setenv("SAGRE_DEMO_EMAIL", "env@example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen)
	assert.True(t, cfg.EditMode)
	assert.Equal(t, "env@example.com", cfg.DemoLogin.Email)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("listen: [unclosed"), 0600))
	_, err := LoadConfig(badYAML)
	assert.Error(t, err)

	badTZ := filepath.Join(dir, "tz.yaml")
	require.NoError(t, os.WriteFile(badTZ, []byte("timezone: Mars/Olympus\n"), 0600))
	_, err = LoadConfig(badTZ)
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestConfigNormalize(t *testing.T) {
	cfg := &Config{DataDir: "custom"}
	cfg.Normalize()

	assert.Equal(t, "custom", cfg.DataDir)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultSiteName, cfg.SiteName)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfig_StoreValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"File store", "store: file\n", ""},
		{"Redis store", "store: redis\nredis_url: redis://localhost:6379/0\n", ""},
		{"Redis without URL", "store: redis\n", "redis_url"},
		{"MySQL without DSN", "store: mysql\n", "mysql_dsn"},
		{"Unknown store", "store: etcd\n", "unknown store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0600))

			_, err := LoadConfig(path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
