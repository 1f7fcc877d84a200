// config/config.go
package config

import (
	"fmt"
	"time"
)

type Config struct {
	API     APIConfig     `koanf:"api"`
	Storage StorageConfig `koanf:"storage"`
	Notes   NotesConfig   `koanf:"notes"`
	Editor  EditorConfig  `koanf:"editor"`
	Log     LogConfig     `koanf:"log"`
	Server  ServerConfig  `koanf:"server"`
}

type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	TraceSize int           `koanf:"trace_size"`
}

// StorageConfig selects where the session is kept. Path is the JSON file for
// the file driver and the DSN for sqlite.
type StorageConfig struct {
	Driver        string `koanf:"driver"`
	Path          string `koanf:"path"`
	Keychain      string `koanf:"keychain"`
	KeychainDir   string `koanf:"keychain_dir"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

type NotesConfig struct {
	Backend   string        `koanf:"backend"`
	StaleTime time.Duration `koanf:"stale_time"`
	Dir       string        `koanf:"dir"`
}

type EditorConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ServerConfig configures `lumi serve`, the development API.
type ServerConfig struct {
	Addr        string        `koanf:"addr"`
	Driver      string        `koanf:"driver"`
	DatabaseURL string        `koanf:"database_url"`
	AccessTTL   time.Duration `koanf:"access_ttl"`
	RefreshTTL  time.Duration `koanf:"refresh_ttl"`
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %v", field, value, allowed)
}

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if err := oneOf("storage.driver", c.Storage.Driver, "memory", "file", "sqlite", "redis"); err != nil {
		return err
	}
	if err := oneOf("storage.keychain", c.Storage.Keychain, "file", "memory", "none"); err != nil {
		return err
	}
	if err := oneOf("notes.backend", c.Notes.Backend, "remote", "local"); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, "console", "json"); err != nil {
		return err
	}
	if err := oneOf("server.driver", c.Server.Driver, "memory", "postgres"); err != nil {
		return err
	}
	if c.Server.Driver == "postgres" && c.Server.DatabaseURL == "" {
		return fmt.Errorf("server.database_url is required for the postgres driver")
	}
	return nil
}
