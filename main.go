package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"clinic-booking-server/internal/auth"
	"clinic-booking-server/internal/config"
	"clinic-booking-server/internal/handlers"
	"clinic-booking-server/internal/metrics"
	"clinic-booking-server/internal/middleware"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/notify"
	"clinic-booking-server/internal/routes"
	"clinic-booking-server/internal/services"
	"clinic-booking-server/internal/store"
	"clinic-booking-server/pkg/logging"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Default().Error("error loading config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file loaded", "error", envErr)
	}

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	clinicMetrics := metrics.NewClinicMetrics(registry)

	// Storage backend
	var db *gorm.DB
	var st store.AppointmentStore
	mode := "local"
	if cfg.LiveMode() {
		db, err = models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
		if err != nil {
			logger.Error("error connecting to database", "error", err)
			os.Exit(1)
		}
		st = store.NewMySQLStore(db, clinicMetrics, logger)
		mode = "live"
	} else {
		st, err = store.NewLocalStore(cfg.LocalStore.Path, store.LocalOptions{
			Seed:    cfg.LocalStore.SeedDemo,
			Metrics: clinicMetrics,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("error opening local store", "error", err)
			os.Exit(1)
		}
		logger.Warn("DB_PROJECT not set, running on local storage", "path", cfg.LocalStore.Path)
	}

	sender, err := newEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("error configuring mail relay", "error", err)
		os.Exit(1)
	}
	notifier := notify.NewNotifier(sender, notify.ClinicInfo{
		Name:    cfg.Clinic.Name,
		Doctor:  cfg.Clinic.Doctor,
		Email:   cfg.Clinic.Email,
		Address: cfg.Clinic.Address,
		Phone:   cfg.Clinic.Phone,
	}, clinicMetrics, logger)

	gate, err := newGate(ctx, cfg, db, logger)
	if err != nil {
		logger.Error("error configuring access gate", "error", err)
		os.Exit(1)
	}

	bookings := services.NewBookingService(st, notifier, time.Now, clinicMetrics, logger)
	dashboard := services.NewDashboard(st, notifier, time.Now, clinicMetrics, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Deps{
		Bookings:  handlers.NewBookingHandler(bookings, logger),
		Dashboard: handlers.NewDashboardHandler(dashboard, time.Now, logger),
		Auth:      handlers.NewAuthHandler(gate, cfg.Environment == "production", logger),
		Gate:      gate,
		Gatherer:  registry,
		Mode:      mode,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server starting", "port", cfg.Port, "mode", mode, "auth", gate.Strategy(), "mail_relay", cfg.Mailer.Relay)
	if err := router.Run(serverAddr); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func newEmailSender(ctx context.Context, cfg *config.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.Mailer.Relay {
	case config.MailRelaySendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.Mailer.SendGridAPIKey,
			FromEmail: cfg.Mailer.FromEmail,
			FromName:  cfg.Mailer.FromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("MAIL_RELAY=%s requires SENDGRID_API_KEY", config.MailRelaySendGrid)
		}
		return sender, nil
	case config.MailRelaySES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Mailer.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.Mailer.FromEmail,
			FromName:  cfg.Mailer.FromName,
		}, logger), nil
	}
	return notify.NewLogSender(logger), nil
}

func newGate(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *logging.Logger) (*auth.Gate, error) {
	var strategy auth.Strategy
	switch cfg.Auth.Strategy {
	case config.AuthStrategyPassword:
		if err := auth.SeedStaffUser(ctx, db, cfg.Auth.StaffEmail, cfg.Auth.StaffPassword, cfg.Auth.StaffName, logger); err != nil {
			return nil, err
		}
		strategy = auth.NewPasswordStrategy(db)
	default:
		strategy = auth.NewPhraseStrategy(cfg.Auth.AccessPhrase, cfg.Auth.StaffName)
	}

	var sessions auth.SessionStore
	switch {
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		sessions = auth.NewRedisSessionStore(client)
	case db != nil:
		sessions = auth.NewGormSessionStore(db)
	default:
		sessions = auth.NewMemorySessionStore(nil)
	}

	return auth.NewGate(strategy, sessions, auth.GateConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    time.Duration(cfg.Auth.SessionTTLHours) * time.Hour,
		Logger: logger,
	}), nil
}
