package main

import (
	"log"
	"net/http"

	"github.com/balaghcms/notification-service/internal/auth"
	"github.com/balaghcms/notification-service/internal/config"
	"github.com/balaghcms/notification-service/internal/handlers"
	"github.com/balaghcms/notification-service/internal/middleware"
	"github.com/balaghcms/notification-service/internal/queue"
	"github.com/balaghcms/notification-service/internal/services"
	"github.com/balaghcms/notification-service/internal/store"
	"github.com/balaghcms/notification-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer logger.Sync()

	redisClient, err := redis.InitRedis(cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	rabbitClient, err := queue.NewRabbitMqService(cfg.RabbitMQ)
	if err != nil {
		logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer rabbitClient.CloseConnection()
	if err := rabbitClient.SetUpExchangeAndQueue(); err != nil {
		logger.Fatal("failed to set up rabbitmq topology", zap.Error(err))
	}

	tokens := auth.NewTokenSource(cfg.Google)
	if !tokens.Configured() {
		logger.Warn("google service account not configured, store and mail calls will fail")
	}

	firestore := store.NewClient(cfg.Google.ProjectID, tokens, logger)
	directory := services.NewFirestoreDirectory(firestore)
	filter := services.NewAccessFilter(directory)
	renderer := services.NewRenderer(cfg.Admin.PanelURL)
	mailer := services.NewGmailMailer(cfg.Mail, tokens, logger)
	notifier := services.NewNotifier(mailer, renderer, cfg.Mail.SendDelay, logger)

	notificationHandler := handlers.NewNotificationHandler(filter, notifier, redisClient, rabbitClient, logger)
	verificationHandler := handlers.NewVerificationHandler(mailer, renderer, redisClient, logger)
	backupHandler := handlers.NewBackupHandler(firestore, logger)
	youtubeHandler := handlers.NewYouTubeHandler(logger)
	healthHandler := handlers.NewHealthHandler(rabbitClient, redisClient, firestore, mailer)

	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.CorrelationID())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	r.GET("/health", healthHandler.HealthCheck)

	api := r.Group("/api")
	{
		api.GET("/notifications/send-emails", notificationHandler.Status)
		api.POST("/notifications/send-emails", notificationHandler.SendEmails)
		api.POST("/notifications/send-verification-code", verificationHandler.SendVerificationCode)
		api.POST("/notifications/verify-code", verificationHandler.VerifyCode)
		api.GET("/backups/cron-status", backupHandler.CronStatus)
		api.POST("/backups/trigger-backup", backupHandler.TriggerBackup)
		api.POST("/youtube/upload", youtubeHandler.Upload)
	}

	logger.Info("starting notification service", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
