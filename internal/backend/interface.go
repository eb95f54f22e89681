// Package backend builds the record and settings stores named by the
// configuration.
package backend

import (
	"context"

	"cafeledger/internal/settings"
	"cafeledger/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// PingFunc checks that a backend is reachable.
type PingFunc func(ctx context.Context) error

// Result holds the record store and its lifecycle hooks.
type Result struct {
	Ledger  store.Ledger
	Ping    PingFunc
	Cleanup CleanupFunc
}

// SettingsResult holds the device settings store and its lifecycle hooks.
type SettingsResult struct {
	Store   settings.Store
	Ping    PingFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
	CreateSettings(ctx context.Context, config Config) (*SettingsResult, error)
}

// Config holds what backend creation needs from the application config.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresURL  string

	// Memory backend seed directory, optional.
	DataDirectory string

	SettingsType  string
	SettingsDir   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
