// Package main runs the background job worker (QR images, emails, snapshots).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcvu-symposium/backend/config"
	"github.com/mcvu-symposium/backend/internal/catalog"
	"github.com/mcvu-symposium/backend/internal/emaillogs"
	"github.com/mcvu-symposium/backend/internal/notifications"
	"github.com/mcvu-symposium/backend/internal/qrcodes"
	"github.com/mcvu-symposium/backend/internal/registrations"
	"github.com/mcvu-symposium/backend/internal/worker"
	"github.com/mcvu-symposium/backend/pkg/database"
	"github.com/mcvu-symposium/backend/pkg/queue"
	"github.com/mcvu-symposium/backend/pkg/redis"
	"github.com/mcvu-symposium/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			SponsorBucket:        cfg.AWS.SponsorBucket,
			QRBucket:             cfg.AWS.QRBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled, qr image jobs will fail", zap.Error(err))
		}
	}

	regRepo := registrations.NewRepository(pool)
	qrRepo := qrcodes.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool, rdb.Client, logger)
	logsRepo := emaillogs.NewRepository(pool)
	mailer := notifications.NewMailer(cfg.Email, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	processor := worker.NewProcessor(jobQueue, regRepo, qrRepo, catalogRepo, logsRepo, mailer, s3Client, cfg.QRAPI, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
