// storage/storage.go
package storage

import (
	"context"
	"fmt"
)

// Store is the generic string key-value store the device keeps its state in.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Keychain is a secure credential store scoped by service name.
type Keychain interface {
	Get(ctx context.Context, service string) (string, bool, error)
	Set(ctx context.Context, service, secret string) error
	Reset(ctx context.Context, service string) error
}

// Driver identifiers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// Config describes the store and keychain selection.
type Config struct {
	Driver      string
	Path        string
	SQLite      *SQLiteConfig
	Redis       *RedisConfig
	Keychain    string
	KeychainDir string
}

type SQLiteConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// New creates a key-value store based on cfg.Driver.
func New(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.Path)
	case DriverSQLite:
		if cfg.SQLite == nil || cfg.SQLite.DSN == "" {
			return nil, fmt.Errorf("sqlite driver requires a dsn")
		}
		return NewSQLite(cfg.SQLite.DSN)
	case DriverRedis:
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// NewKeychain creates the credential store named by cfg.Keychain. A nil
// Keychain with a nil error means no secure store is available.
func NewKeychain(cfg Config) (Keychain, error) {
	switch cfg.Keychain {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemoryKeychain(), nil
	case DriverFile:
		return NewFileKeychain(cfg.KeychainDir)
	default:
		return nil, fmt.Errorf("unsupported keychain driver: %s", cfg.Keychain)
	}
}
