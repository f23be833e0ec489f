// Package main runs the symposium registration HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcvu-symposium/backend/config"
	"github.com/mcvu-symposium/backend/internal/auth"
	"github.com/mcvu-symposium/backend/internal/captcha"
	"github.com/mcvu-symposium/backend/internal/catalog"
	"github.com/mcvu-symposium/backend/internal/emaillogs"
	"github.com/mcvu-symposium/backend/internal/middleware"
	"github.com/mcvu-symposium/backend/internal/models"
	"github.com/mcvu-symposium/backend/internal/payments"
	"github.com/mcvu-symposium/backend/internal/promo"
	"github.com/mcvu-symposium/backend/internal/qrcodes"
	"github.com/mcvu-symposium/backend/internal/registrations"
	"github.com/mcvu-symposium/backend/pkg/database"
	"github.com/mcvu-symposium/backend/pkg/queue"
	"github.com/mcvu-symposium/backend/pkg/redis"
	"github.com/mcvu-symposium/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

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
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	verifier := captcha.NewVerifier(cfg.Captcha.Secret, cfg.Captcha.VerifyURL)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	if err := auth.SeedAdmin(ctx, authRepo, cfg.Admin.Email, cfg.Admin.Password, logger); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	// Catalog (tickets, workshops, bank account) with Redis cache
	catalogRepo := catalog.NewRepository(pool, rdb.Client, logger)
	catalogHandler := catalog.NewHandler(catalogRepo, logger)

	// Promo codes
	promoRepo := promo.NewRepository(pool)
	promoHandler := promo.NewHandler(promoRepo, logger)

	// Payments and the unique-amount allocator
	paymentRepo := payments.NewRepository(pool)
	allocator := payments.NewAllocator(paymentRepo)
	paymentHandler := payments.NewHandler(paymentRepo, jobQueue, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationService := registrations.NewService(registrationRepo, promoRepo, catalogRepo, allocator, jobQueue, s3Client, logger)
	registrationHandler := registrations.NewHandler(registrationService, registrationRepo, verifier, s3Client, logger)

	// QR codes / check-in
	qrRepo := qrcodes.NewRepository(pool)
	qrHandler := qrcodes.NewHandler(qrRepo, logger)

	// Email delivery log
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	{
		// Public registration flow
		api.POST("/register", registrationHandler.Register)
		api.GET("/check-registration", registrationHandler.CheckRegistration)
		api.POST("/check-registration", registrationHandler.CheckRegistration)
		api.GET("/registrations/:id", registrationHandler.GetByID)
		api.POST("/check-promo", promoHandler.Check)

		// Public catalog
		api.GET("/tickets", catalogHandler.ListTickets)
		api.GET("/workshops", catalogHandler.ListWorkshops)

		// Auth
		api.POST("/auth/login", authHandler.Login)

		// Admin (JWT required)
		admin := api.Group("/admin")
		admin.Use(middleware.JWT(jwtService))
		{
			admin.GET("/registrations", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), registrationHandler.List)
			admin.GET("/registrations/:id/sponsor-letter", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), registrationHandler.SponsorLetter)
			admin.GET("/payments", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), paymentHandler.ListPending)
			admin.POST("/payments/:id/verify", middleware.RequireRole(string(models.RoleAdmin)), paymentHandler.Verify)
			admin.POST("/check-in", middleware.RequireRole(string(models.RoleAdmin), string(models.RoleStaff)), qrHandler.CheckIn)
			admin.GET("/email-logs", middleware.RequireRole(string(models.RoleAdmin)), emailLogsHandler.List)
			admin.GET("/users", middleware.RequireRole(string(models.RoleAdmin)), authHandler.List)
			admin.POST("/users", middleware.RequireRole(string(models.RoleAdmin)), authHandler.CreateUser)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
