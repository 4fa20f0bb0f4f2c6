package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/auth"
	"spendtrack/internal/backend"
	"spendtrack/internal/cache"
	"spendtrack/internal/cli"
	"spendtrack/internal/config"
	apphttp "spendtrack/internal/http"
	"spendtrack/internal/services"
)

const categoryCacheTTL = 10 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg.LogLevel, "spendtrack")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(bcfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	categories := cache.NewCategories(res.Categories, categoryCacheTTL)

	// Publishing is optional; without a broker records are only stored.
	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP publishing disabled - no AMQP_URL provided")
	}

	svc := services.NewExpenseService(res.Store, categories, publisher)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:    ":" + cfg.Port,
		Service: svc,
		Resolver: auth.HeaderResolver{Fallback: auth.User{
			ID:    cfg.DevUserID,
			Email: cfg.DevUserEmail,
		}},
		LoginURL:           cfg.LoginURL,
		Ready:              res.Ping,
		Caches:             []cache.Cleaner{categories},
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TopCategories:      cfg.TopCategories,
		MonthLabelFormat:   cfg.MonthLabelFormat,
		CurrencySymbol:     cfg.CurrencySymbol,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting spendtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
