package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Samson397/spendflow-core/spendflow/config"
	"github.com/Samson397/spendflow-core/spendflow/ledger"
	"github.com/Samson397/spendflow-core/spendflow/money"
	spendhttp "github.com/Samson397/spendflow-core/spendflow/net/http"
	"github.com/Samson397/spendflow-core/spendflow/notifications"
	"github.com/Samson397/spendflow-core/spendflow/store"
	"github.com/Samson397/spendflow-core/spendflow/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.New(zap.Config{
		Environment: zap.Environment(cfg.Env),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		st      store.Store
		pgClose func()
	)

	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database connection failed: %v", err)
		}

		st = pg
		pgClose = pg.Close
		logger.Info("connected to postgres")
	} else {
		st = store.NewMemory()
		logger.Warn("no DATABASE_URL set, using in-memory store")
	}

	var (
		notifier notifications.Notifier = notifications.Nop{}
		webhook  *notifications.Webhook
	)

	if cfg.WebhookURL != "" {
		webhook = notifications.NewWebhook(cfg.WebhookURL, logger)
		notifier = webhook
	}

	svc := ledger.New(st, logger, notifier, money.CurrencyFor(cfg.Currency))
	app := spendhttp.NewRouter(svc, logger)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Infof("server starting: env=%s port=%s", cfg.Env, cfg.Port)

		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorf("server stopped: %v", err)
		}
	}()

	<-stop
	logger.Info("shutting down")

	if err := app.Shutdown(); err != nil {
		logger.Errorf("server shutdown failed: %v", err)
	}

	if webhook != nil {
		webhook.Flush()
	}

	if pgClose != nil {
		pgClose()
	}

	logger.Info("server exited")
}
