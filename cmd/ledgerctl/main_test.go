package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigPrefersViperValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("DATA_BACKEND", "memory")
	viper.Set("data_backend", "sqlite")
	viper.Set("sqlite_db_path", filepath.Join(t.TempDir(), "ledger.db"))
	viper.Set("ledger_timezone", "Asia/Kolkata")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DataBackend)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
}

func TestLoadConfigRejectsInvalidBackend(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("data_backend", "sheets")
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestExportJSONFromSeededMemoryBackend(t *testing.T) {
	t.Cleanup(viper.Reset)
	seed := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seed, "transactions.json"), []byte(`[
		{"id":"t1","amount":120,"type":"income","category":"Coffee","date":"2024-03-15T09:00:00Z","createdAt":"2024-03-15T09:00:00Z","paymentMethod":"cash"}
	]`), 0o600))
	t.Setenv("SEED_DIR", seed)
	t.Setenv("DATA_BACKEND", "memory")

	out := filepath.Join(t.TempDir(), "ledger.json")
	rootCmd.SetArgs([]string{"export", "json", "--out", out})
	rootCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var txs []map[string]any
	require.NoError(t, json.Unmarshal(data, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "Coffee", txs[0]["category"])
	assert.Equal(t, 120.0, txs[0]["amount"])
}

func TestClearRequiresConfirmation(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("DATA_BACKEND", "memory")
	rootCmd.SetArgs([]string{"clear"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
