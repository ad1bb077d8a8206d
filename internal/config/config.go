package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Broker  BrokerConfig  `mapstructure:"broker"`
	Seed    SeedConfig    `mapstructure:"seed"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig selects the people backend.
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

type BrokerConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// SeedConfig controls sample data for empty stores.
type SeedConfig struct {
	People int `mapstructure:"people"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from file and env. Env var overrides use prefix ADMINDESK_.
// ADMINDESK_CONFIG names the file; otherwise ~/.config/admindesk/config.toml is
// read when present.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("ADMINDESK_CONFIG"))
}

// LoadFrom is Load with an explicit config file. An empty path falls back to
// the default location. A named file must exist.
func LoadFrom(cfgPath string) (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.path", filepath.Join(home, ".local", "share", "admindesk", "admindesk.db"))
	v.SetDefault("storage.cache_size", 256)
	v.SetDefault("broker.page_size", 10)
	v.SetDefault("seed.people", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", filepath.Join(home, ".local", "state", "admindesk", "admindesk.log"))

	v.SetConfigType("toml")

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "admindesk"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ADMINDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("config: storage.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q (want %s or %s)", c.Storage.Driver, DriverMemory, DriverSQLite)
	}
	if c.Broker.PageSize < 1 {
		return fmt.Errorf("config: broker.page_size must be at least 1, got %d", c.Broker.PageSize)
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("config: storage.cache_size must not be negative, got %d", c.Storage.CacheSize)
	}
	if c.Seed.People < 0 {
		return fmt.Errorf("config: seed.people must not be negative, got %d", c.Seed.People)
	}
	return nil
}
