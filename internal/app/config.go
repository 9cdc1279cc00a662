package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Constants
const (
	DefaultConfigFile = "sagre-kalender.yaml"
	DefaultListen     = ":8080"
	DefaultTimezone   = "Europe/Rome"
	DefaultDataDir    = "data"
	DefaultBackupCron = "0 3 * * *"
	DefaultSiteName   = "Sagre Campane"

	// Store backends
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreMySQL = "mysql"

	// EnvPrefix is the prefix of environment overrides (SAGRE_LISTEN, ...)
	EnvPrefix = "sagre"

	// Error messages
	ErrEditModeDisabled     = "Edit mode disabled"
	ErrInvalidFormat        = "Invalid format"
	ErrInternalServer       = "Internal server error"
	ErrFailedToSave         = "Failed to save events"
	ErrFailedToGenerateJSON = "Failed to generate JSON"
	ErrEventNotFoundMsg     = "Evento non trovato"
	ErrInvalidRequest       = "Richiesta non valida"
	ErrCredentialsMsg       = "Credenziali non valide"
	ErrImportTooLarge       = "Testo di importazione troppo lungo (massimo 1 MB)"

	// Mode strings
	ModeServe = "serve"
	ModeEdit  = "edit"

	// ICS constants
	ICSProductID = "-//Sagre Campane//Calendario Sagre//IT"
)

// DemoLogin is the fallback credential used when no auth file exists
type DemoLogin struct {
	Email    string `yaml:"email" envconfig:"EMAIL"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
}

// Config is the top-level application configuration
type Config struct {
	// Listen is the HTTP listen address
	Listen string `yaml:"listen" envconfig:"LISTEN"`

	// Timezone is the IANA timezone that defines "today"
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`

	// Store selects the key-value backend: file, redis or mysql
	Store string `yaml:"store" envconfig:"STORE"`

	// DataDir holds the key-value files and their backups (file store)
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`

	// RedisURL is the redis:// URL of the redis store
	RedisURL string `yaml:"redis_url" envconfig:"REDIS_URL"`

	// MySQLDSN is the data source name of the mysql store
	MySQLDSN string `yaml:"mysql_dsn" envconfig:"MYSQL_DSN"`

	// EditMode enables the editor endpoints
	EditMode bool `yaml:"edit_mode" envconfig:"EDIT_MODE"`

	// AuthFile is the username:argon2id-hash file; empty means AUTH_FILE or
	// auth.secret next to the binary
	AuthFile string `yaml:"auth_file" envconfig:"AUTH_FILE"`

	// Environment selects the log format ("production" or "development")
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`

	// BackupCron is the cron schedule of data snapshots; "off" disables them
	BackupCron string `yaml:"backup_cron" envconfig:"BACKUP_CRON"`

	// SiteName is shown in the page header and calendar exports
	SiteName string `yaml:"site_name" envconfig:"SITE_NAME"`

	DemoLogin DemoLogin `yaml:"demo_login" envconfig:"DEMO"`
}

// DefaultConfig returns an in-memory default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:      DefaultListen,
		Timezone:    DefaultTimezone,
		Store:       StoreFile,
		DataDir:     DefaultDataDir,
		Environment: "development",
		BackupCron:  DefaultBackupCron,
		SiteName:    DefaultSiteName,
		DemoLogin: DemoLogin{
			Email:    "admin@sagrecampania.it",
			Password: "admin123",
		},
	}
}

// Normalize fills in missing values with defaults
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Store == "" {
		c.Store = d.Store
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.BackupCron == "" {
		c.BackupCron = d.BackupCron
	}
	if c.SiteName == "" {
		c.SiteName = d.SiteName
	}
}

// Location returns the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BackupsEnabled reports whether periodic snapshots are scheduled
func (c *Config) BackupsEnabled() bool {
	return c.BackupCron != "off"
}

// LoadConfig loads configuration from the given YAML path and applies
// SAGRE_* environment overrides.
//
// A missing file is not an error: defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// defaults
		default:
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.Normalize()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateStore() error {
	switch c.Store {
	case StoreFile:
		return nil
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("store redis requires redis_url")
		}
		return nil
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return errors.New("store mysql requires mysql_dsn")
		}
		return nil
	default:
		return fmt.Errorf("unknown store %q (expected file, redis or mysql)", c.Store)
	}
}
