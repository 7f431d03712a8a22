// Package config loads settings for the gtfslite command.
//
// Values come from an optional YAML file, then from the environment
// (a .env file in the working directory is loaded first), in that
// order of precedence. Command line flags are applied on top by the
// caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "GTFSLITE_"

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Fetch   FetchConfig   `yaml:"fetch"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend" validate:"required,oneof=memory sqlite postgres"`
	SQLiteDir   string `yaml:"sqlite_dir" validate:"required_if=Backend sqlite"`
	PostgresURL string `yaml:"postgres_url" validate:"required_if=Backend postgres"`
	ClearDB     bool   `yaml:"clear_db"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	File  string `yaml:"file"`
}

type FetchConfig struct {
	Timeout   time.Duration     `yaml:"timeout" validate:"gte=0"`
	MaxSizeMB int               `yaml:"max_size_mb" validate:"gte=0"`
	CacheDir  string            `yaml:"cache_dir"`
	CacheTTL  time.Duration     `yaml:"cache_ttl" validate:"gte=0"`
	Headers   map[string]string `yaml:"headers"`
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:   "sqlite",
			SQLiteDir: ".",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
		Fetch: FetchConfig{
			Timeout:   60 * time.Second,
			MaxSizeMB: 800,
		},
	}
}

// Loads configuration from path, which may be empty, and the
// environment. The result is validated.
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	err := cfg.applyEnv()
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Storage.Backend, "STORAGE")
	setString(&c.Storage.SQLiteDir, "SQLITE_DIR")
	setString(&c.Storage.PostgresURL, "POSTGRES_URL")
	setString(&c.Server.Addr, "ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setString(&c.Fetch.CacheDir, "CACHE_DIR")

	if v, ok := lookup("CLEAR_DB"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCLEAR_DB: %w", EnvPrefix, err)
		}
		c.Storage.ClearDB = b
	}

	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &c.Fetch.Timeout},
		{"CACHE_TTL", &c.Fetch.CacheTTL},
	} {
		if v, ok := lookup(d.name); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, d.name, err)
			}
			*d.dst = parsed
		}
	}

	if v, ok := lookup("MAX_SIZE_MB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_SIZE_MB: %w", EnvPrefix, err)
		}
		c.Fetch.MaxSizeMB = n
	}

	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}
