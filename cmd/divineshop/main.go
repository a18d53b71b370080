// Package main запускает HTTP-сервер магазина DivineShop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/divineshop/internal/config"
	"github.com/mmeshcher/divineshop/internal/handler"
	"github.com/mmeshcher/divineshop/internal/middleware"
	"github.com/mmeshcher/divineshop/internal/payment"
	"github.com/mmeshcher/divineshop/internal/repository"
	"github.com/mmeshcher/divineshop/internal/service"
	"github.com/mmeshcher/divineshop/internal/session"
)

const sessionSweepInterval = 10 * time.Minute

func newLogger(production bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if production {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Production())
	defer logger.Sync()

	sugar := logger.Sugar()

	if cfg.DatabaseURI == "" {
		sugar.Fatalw("configuration error", "error", "DATABASE_URI is required")
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, repository.Options{
		StockPolicy: cfg.StockPolicy,
		TieBreak:    cfg.RankingTieBreak,
	})
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var sessions session.Store
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Fatalw("redis connection error", "addr", cfg.RedisAddress, "error", err.Error())
		}
		sessions = session.NewRedisStore(rdb)
	} else {
		memory := session.NewMemoryStore(logger.Named("session"))
		g.Go(func() error {
			return memory.Run(ctx, sessionSweepInterval)
		})
		sessions = memory
	}

	payments := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey, logger)
	if !payments.Configured() {
		sugar.Warnw("payment processor is not configured, checkout is disabled")
	}

	svc := service.NewService(repo, payments, logger.Named("service"), service.Options{
		BcryptCost: cfg.BcryptCost,
		Currency:   cfg.PaymentCurrency,
	})
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(sessions, cfg.SessionSecret, cfg.Production(), logger)
	h := handler.NewHandler(svc, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		sugar.Infow("starting divineshop server", "addr", cfg.RunAddress, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
