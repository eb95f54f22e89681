package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"cafeledger/internal/amqp"
	"cafeledger/internal/auth"
	"cafeledger/internal/cache"
	"cafeledger/internal/cli"
	apphttp "cafeledger/internal/http"
	"cafeledger/internal/log"
	"cafeledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	clock, err := cli.Clock(cfg)
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()
	factory, bcfg, records := cli.InitBackend(ctx, logger, cfg)
	prefs, err := factory.CreateSettings(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize settings store", log.FieldError, err, "backend", cfg.SettingsBackend)
		os.Exit(1)
	}

	checks := []apphttp.Check{
		{Name: "store", Ping: records.Ping},
		{Name: "settings", Ping: prefs.Ping},
	}
	opts := []services.Option{services.WithCacheTTL(cfg.CacheTTL), services.WithClock(clock)}

	// Publishing is optional; the ledger works without the mirror.
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP, events will not be published", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(publisher))
			checks = append(checks, apphttp.Check{Name: "amqp", Ping: publisher.Ping})
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
		}
	}

	ledgerSvc := services.NewLedgerService(records.Ledger, records.Ledger, logger, opts...)

	caches := cache.NewManager(logger)
	for _, c := range ledgerSvc.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)

	var (
		resolver auth.Resolver
		sessions *auth.Sessions
	)
	if cfg.AuthEnabled {
		static, err := auth.ParseUsers(cfg.AuthUsers)
		if err != nil {
			logger.Error("Invalid AUTH_USERS", log.FieldError, err)
			os.Exit(1)
		}
		resolver = auth.NewProfileResolver(static, records.Ledger, logger)
		sessions = auth.NewSessions(cfg.JWTSecret, cfg.SessionTTL).
			WithSecureCookies(cfg.CookieSecure)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:             ledgerSvc,
		Settings:           prefs.Store,
		Logger:             logger,
		AuthEnabled:        cfg.AuthEnabled,
		Resolver:           resolver,
		Sessions:           sessions,
		ReceiptMaxBytes:    cfg.ReceiptMaxBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Checks:             checks,
		Caches:             caches,
	})
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if publisher != nil {
			_ = publisher.Close()
		}
		if err := prefs.Cleanup(); err != nil {
			logger.Error("Settings cleanup error", log.FieldError, err)
		}
		if err := records.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting cafeledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"settings", cfg.SettingsBackend,
		"auth", cfg.AuthEnabled)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
