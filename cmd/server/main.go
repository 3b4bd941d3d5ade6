// Package main runs the bootcamp registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingscode/bootcamp-api/config"
	"github.com/kingscode/bootcamp-api/internal/auth"
	"github.com/kingscode/bootcamp-api/internal/courses"
	"github.com/kingscode/bootcamp-api/internal/emaillogs"
	"github.com/kingscode/bootcamp-api/internal/export"
	"github.com/kingscode/bootcamp-api/internal/mailer"
	"github.com/kingscode/bootcamp-api/internal/qrcode"
	"github.com/kingscode/bootcamp-api/internal/registrations"
	"github.com/kingscode/bootcamp-api/internal/worker"
	"github.com/kingscode/bootcamp-api/pkg/database"
	"github.com/kingscode/bootcamp-api/pkg/queue"
	"github.com/kingscode/bootcamp-api/pkg/redis"
	"github.com/kingscode/bootcamp-api/pkg/storage"
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

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var uploader export.Uploader
	if cfg.AWS.Enabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled; exports will be streamed", zap.Error(err))
		} else {
			uploader = s3Client
		}
	}

	qr := qrcode.NewEncoder(qrcode.DefaultSize)
	mail := mailer.New(cfg.Email, logger)

	registrationRepo := registrations.NewRepository(pool)
	emailLogsRepo := emaillogs.NewRepository(pool)
	registrationSvc := registrations.NewService(registrationRepo, qr, mail, emailLogsRepo, logger)

	// Resend queue and in-process worker (Redis only)
	var enqueuer emaillogs.Enqueuer
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if rdb != nil {
		jobQueue := queue.NewQueue(rdb.Client, logger)
		enqueuer = jobQueue
		processor := worker.NewEmailProcessor(registrationRepo, qr, mail, emailLogsRepo, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("email worker started")
	}

	if !cfg.Staff.Enabled() {
		logger.Warn("STAFF_PASSWORD_HASH not set; staff routes disabled")
	}
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	router := newRouter(logger, routeDeps{
		corsOrigins:   cfg.Server.CORSAllowedOrigins,
		staffEnabled:  cfg.Staff.Enabled(),
		db:            pool,
		jwt:           jwtService,
		auth:          auth.NewHandler(cfg.Staff, jwtService, logger),
		courses:       courses.NewHandler(),
		registrations: registrations.NewHandler(registrationSvc, registrationRepo, logger),
		emailLogs:     emaillogs.NewHandler(emailLogsRepo, registrationRepo, enqueuer, logger),
		export:        export.NewHandler(registrationRepo, uploader, logger),
	})

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

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
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
