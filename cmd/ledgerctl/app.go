package main

import (
	"context"
	"fmt"

	"cafeledger/internal/auth"
	"cafeledger/internal/backend"
	"cafeledger/internal/cli"
	"cafeledger/internal/config"
	"cafeledger/internal/log"
	"cafeledger/internal/services"

	"github.com/spf13/viper"
)

// operator is the identity ledgerctl acts as. Shell access to the backend
// already implies full control of the data.
var operator = &auth.Identity{UserID: auth.UserID("ledgerctl"), Username: "ledgerctl", Role: auth.RoleAdmin}

type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.Result
	ledger  *services.LedgerService
}

// loadConfig layers viper values (flags, config file, environment) over
// the environment defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	override := func(key string, dst *string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	override("data_backend", &cfg.DataBackend)
	override("sqlite_db_path", &cfg.SQLiteDBPath)
	override("postgres_url", &cfg.PostgresURL)
	override("ledger_timezone", &cfg.Timezone)
	override("log_level", &cfg.LogLevel)
	override("seed_dir", &cfg.SeedDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, "ledgerctl")

	clock, err := cli.Clock(cfg)
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: result,
		ledger:  services.NewLedgerService(result.Ledger, result.Ledger, logger, services.WithClock(clock)),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Cleanup(); err != nil {
		a.logger.Error("Failed to close backend", log.FieldError, err)
	}
}
