// Package config provides centralized configuration for the laosrs server.
// Values come from the environment, optionally seeded from .env files, with
// defaults declared on the struct tags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Storage backends
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// envFiles are read in order; earlier files and the real environment win.
var envFiles = []string{".env.local", ".env"}

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// StoreBackend selects where documents are persisted.
	StoreBackend string `envconfig:"STORE_BACKEND" default:"sqlite"`
	DBPath       string `envconfig:"DB_PATH" default:"laosrs.db"`
	PostgresDSN  string `envconfig:"POSTGRES_DSN"`
	DBMaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"4"`

	// Timezone decides calendar-day boundaries for streaks and daily counts.
	Timezone string `envconfig:"TIMEZONE" default:"Local"`

	BackupEnabled  bool   `envconfig:"BACKUP_ENABLED" default:"false"`
	BackupSchedule string `envconfig:"BACKUP_SCHEDULE" default:"0 3 * * *"`
	BackupDir      string `envconfig:"BACKUP_DIR" default:"backups"`
	BackupKeep     int    `envconfig:"BACKUP_KEEP" default:"14"`

	// CORSOrigin is the allowed CORS origin.
	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`

	// DifficultyFile optionally points at a JSON object of item id to
	// difficulty (1-4).
	DifficultyFile string `envconfig:"DIFFICULTY_FILE"`
}

// Load reads .env files, then the environment, then validates.
func Load() (*Config, error) {
	for _, f := range envFiles {
		loadEnvFile(f)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile sets variables from path that are not already set. A missing
// file is not an error.
func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.WithError(err).WithField("file", path).Warn("skipping env file")
	}
}

// Validate checks values that the struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres backend")
		}
		if c.DBMaxConns <= 0 {
			return errors.New("DB_MAX_CONNS must be > 0")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.BackupEnabled {
		if _, err := cron.ParseStandard(c.BackupSchedule); err != nil {
			return fmt.Errorf("BACKUP_SCHEDULE %q: %w", c.BackupSchedule, err)
		}
		if c.BackupDir == "" {
			return errors.New("BACKUP_DIR is required when backups are enabled")
		}
		if c.BackupKeep < 0 {
			return errors.New("BACKUP_KEEP must be >= 0")
		}
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Difficulties reads DifficultyFile. It returns nil when no file is set.
func (c *Config) Difficulties() (map[string]int, error) {
	if c.DifficultyFile == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.DifficultyFile)
	if err != nil {
		return nil, fmt.Errorf("read difficulty file: %w", err)
	}
	var m map[string]int
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse difficulty file: %w", err)
	}
	for id, d := range m {
		if d < 1 || d > 4 {
			return nil, fmt.Errorf("difficulty file: %q has difficulty %d, want 1-4", id, d)
		}
	}
	return m, nil
}
