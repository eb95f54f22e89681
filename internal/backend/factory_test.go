package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cafeledger/internal/config"
	"cafeledger/internal/core"
	"cafeledger/internal/log"
	"cafeledger/internal/storage"
	"cafeledger/internal/store/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SettingsBackend: "file"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"redis without addr", Config{Type: MemoryBackend, SettingsType: "redis"}, true},
		{"unknown settings", Config{Type: MemoryBackend, SettingsType: "etcd"}, true},
		{"unknown type", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	t.Run("memory", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, res.Ledger)
		assert.NoError(t, res.Ping(ctx))
		assert.NoError(t, res.Cleanup())
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.db")
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Cleanup() })
		assert.IsType(t, &storage.SQLiteRepository{}, res.Ledger)
		require.NoError(t, res.Ping(ctx))

		require.NoError(t, res.Ledger.Create(ctx, core.NewTransaction{
			Amount: decimal.NewFromInt(3), Type: core.Income, Category: "Tea",
			Date: time.Now(), PaymentMethod: core.Cash,
		}))
		txs, err := res.Ledger.List(ctx)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})
}

func TestCreateSettings(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("file", func(t *testing.T) {
		res, err := f.CreateSettings(ctx, Config{SettingsType: "file", SettingsDir: t.TempDir()})
		require.NoError(t, err)
		assert.NoError(t, res.Ping(ctx))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		res, err := f.CreateSettings(ctx, Config{SettingsType: "redis", RedisAddr: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Cleanup() })
		assert.NoError(t, res.Ping(ctx))
	})
}
