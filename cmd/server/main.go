package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/userhub/backend/internal/app"
	"github.com/userhub/backend/internal/config"
	"github.com/userhub/backend/internal/database"
	"github.com/userhub/backend/internal/services"
	"go.uber.org/zap"
)

// @title UserHub API
// @version 1.0
// @description Account registration, login, two-factor enrollment, password reset and user administration
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	if err := viper.ReadInConfig(); err != nil {
		logger.Info("config file not found, using environment and defaults", zap.Error(err))
	}

	secret := viper.GetString("jwt.secret_key")
	if secret == "" {
		logger.Fatal("JWT_SECRET_KEY must be set")
	}

	authCfg := config.LoadAuthConfig()
	mailCfg := config.LoadMailConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	redisClient := database.InitRedis(ctx, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	mailer := services.NewSMTPMailer(services.SMTPConfig{
		Host:     mailCfg.Host,
		Port:     mailCfg.Port,
		Username: mailCfg.Username,
		Password: mailCfg.Password,
		From:     mailCfg.From,
		FromName: mailCfg.FromName,
		Timeout:  mailCfg.Timeout,
	}, logger)

	application := app.New(app.Deps{
		DB:        db,
		Redis:     redisClient,
		Mailer:    mailer,
		Config:    authCfg,
		JWTSecret: secret,
		Logger:    logger,
	})

	// Expired reset tokens are rejected at read time; the job only reclaims rows.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(authCfg.PurgeSchedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := application.PasswordReset.PurgeExpired(jobCtx)
		if err != nil {
			logger.Error("reset token purge failed", zap.Error(err))
			return
		}
		logger.Info("purged expired reset tokens", zap.Int64("count", n))
	}); err != nil {
		logger.Fatal("invalid purge schedule", zap.String("schedule", authCfg.PurgeSchedule), zap.Error(err))
	}
	scheduler.Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      application.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("server shutting down")
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
