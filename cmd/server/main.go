package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/rental-chat/config"
	_ "github.com/d60-Lab/rental-chat/docs"
	"github.com/d60-Lab/rental-chat/internal/api"
	"github.com/d60-Lab/rental-chat/internal/api/handler"
	"github.com/d60-Lab/rental-chat/internal/repository"
	"github.com/d60-Lab/rental-chat/internal/schema"
	"github.com/d60-Lab/rental-chat/internal/service"
	"github.com/d60-Lab/rental-chat/pkg/database"
	"github.com/d60-Lab/rental-chat/pkg/logger"
	"github.com/d60-Lab/rental-chat/pkg/tracing"
)

// @title Rental Chat API
// @version 1.0
// @description 租房市场的会话与匹配开通服务
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic("init logger: " + err.Error())
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	if cfg.Trace.Enabled {
		shutdown, err := tracing.Init(ctx, "rental-chat", cfg.Trace.Endpoint)
		if err != nil {
			logger.Warn("tracing init failed", zap.Error(err))
		} else {
			defer shutdown(ctx) //nolint:errcheck
		}
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init database", zap.Error(err))
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 通知是尽力而为，Redis 不可达只降级不阻断启动
			logger.Warn("redis unreachable, notifications disabled", zap.Error(err))
			rdb = nil
		}
	}

	resolver := schema.NewResolver(db)
	threadRepo := repository.NewThreadRepository(db, resolver)
	messageRepo := repository.NewMessageRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	userRepo := repository.NewUserRepository(db)

	notifier := service.NewNotifier(rdb)
	toucher := service.NewConversationToucher(threadRepo, 10000)
	stopToucher := toucher.Start(2)

	threadSvc := service.NewThreadService(threadRepo, messageRepo, userRepo, toucher, notifier)
	interestSvc := service.NewInterestService(db, likeRepo, matchRepo, threadRepo, notifier)

	h := handler.NewHandler(threadSvc, interestSvc, db, rdb)
	r := api.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := stopToucher(shutdownCtx); err != nil {
		logger.Warn("toucher drain incomplete", zap.Error(err))
	}
}
