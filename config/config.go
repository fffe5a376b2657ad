/*
Package config loads the HTTP server configuration.

PURPOSE:
  Defaults, overlaid by an optional YAML file, validated before anything
  starts. The processing CLI stays flag-only; this package serves the
  server binary.

EXAMPLE FILE:
  addr: ":8080"
  allowed_origins: ["https://ops.example.com"]
  log_level: debug
  store:
    backend: sqlite
    path: /tmp/payments-scratch.db
  retention:
    max_entries: 100000
    sweep_interval: 30s
*/
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the validated, typed configuration the server runs on.
type Config struct {
	Addr           string
	AllowedOrigins []string
	LogLevel       zapcore.Level

	StoreBackend string // BackendMemory or BackendSQLite
	StorePath    string // sqlite only; empty means a file under os.TempDir

	RetentionMaxEntries int // 0 disables retention sweeping
	SweepInterval       time.Duration
}

// fileConfig is the YAML shape. Durations and levels arrive as strings and
// are parsed into Config during Load.
type fileConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
	Store          struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"store"`
	Retention struct {
		MaxEntries    int    `yaml:"max_entries"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"retention"`
}

func defaults() fileConfig {
	var fc fileConfig
	fc.Addr = ":8080"
	fc.AllowedOrigins = []string{"*"}
	fc.LogLevel = "info"
	fc.Store.Backend = BackendMemory
	fc.Retention.SweepInterval = "1m"
	return fc
}

// Load reads the file at path over the defaults. An empty path or a
// missing file yields the defaults unchanged; anything else wrong with the
// file or its values is an error.
func Load(path string) (Config, error) {
	fc := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return Config{}, errors.Wrapf(err, "parse config %s", path)
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}
	return fc.build()
}

func (fc fileConfig) build() (Config, error) {
	if fc.Addr == "" {
		return Config{}, errors.New("'addr' must not be empty")
	}

	level, err := zapcore.ParseLevel(fc.LogLevel)
	if err != nil {
		return Config{}, errors.Errorf("incorrect 'log_level' %q (debug, info, warn or error)", fc.LogLevel)
	}

	switch fc.Store.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return Config{}, errors.Errorf("incorrect 'store.backend' %q (memory or sqlite)", fc.Store.Backend)
	}

	if fc.Retention.MaxEntries < 0 {
		return Config{}, errors.New("'retention.max_entries' must not be negative")
	}
	interval, err := time.ParseDuration(fc.Retention.SweepInterval)
	if err != nil {
		return Config{}, errors.Errorf("incorrect 'retention.sweep_interval' %q (for example 30s)", fc.Retention.SweepInterval)
	}
	if fc.Retention.MaxEntries > 0 && interval <= 0 {
		return Config{}, errors.New("'retention.sweep_interval' must be positive when retention is enabled")
	}

	return Config{
		Addr:                fc.Addr,
		AllowedOrigins:      fc.AllowedOrigins,
		LogLevel:            level,
		StoreBackend:        fc.Store.Backend,
		StorePath:           fc.Store.Path,
		RetentionMaxEntries: fc.Retention.MaxEntries,
		SweepInterval:       interval,
	}, nil
}
