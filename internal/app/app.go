package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/corebank/internal/admin"
	"github.com/cradoe/corebank/internal/auth"
	"github.com/cradoe/corebank/internal/cache"
	"github.com/cradoe/corebank/internal/config"
	"github.com/cradoe/corebank/internal/env"
	"github.com/cradoe/corebank/internal/errHandler"
	"github.com/cradoe/corebank/internal/helper"
	"github.com/cradoe/corebank/internal/ledger"
	"github.com/cradoe/corebank/internal/repository"
	"github.com/cradoe/corebank/internal/smtp"
	"github.com/cradoe/corebank/internal/stream"
	"github.com/joho/godotenv"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items and when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	ErrorHandler *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
	Kafka        *stream.KafkaStream
	Cache        *cache.Cache

	Auth   *auth.Service
	Ledger *ledger.Service
	Admin  *admin.Service

	shutdownHooks []func()
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("Error loading .env file", "error", err)
	}

	cfg := loadConfig()

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	app := &Application{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Mailer: mailer,
		Kafka:  stream.New(cfg.KafkaServers, logger),
		Cache:  cache.New(cfg.RedisServer, 0),
	}

	app.ErrorHandler = errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)
	app.Helper = helper.New(cfg.BaseURL, &app.WG, app.ErrorHandler)

	tokens := auth.NewTokenIssuer(cfg.Jwt.SecretKey, cfg.BaseURL, cfg.Jwt.AccessTokenTTL, cfg.Jwt.RefreshTokenTTL)

	app.Auth = auth.NewService(db.Account(), db.Audit(), tokens, logger)
	app.Ledger = ledger.NewService(db.Account(), db.Transaction(), db.Ledger(), app.Kafka, logger, ledger.Options{
		Cooldown: cfg.Transaction.Cooldown,
		Timeout:  cfg.Transaction.Timeout,
	})
	app.Admin = admin.NewService(db, db.Account(), db.Audit(), logger)

	return app, nil
}

// config values are loaded from the .env file
// Default values are provided for these items and these should strictly be values for development mode only
// make sure no production-level value is exposed as default value here
func loadConfig() config.Config {
	var cfg config.Config

	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)
	cfg.FrontendURL = env.GetString("FRONTEND_URL", "")

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db?sslmode=disable")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")
	cfg.Jwt.AccessTokenTTL = env.GetDuration("ACCESS_TOKEN_TTL", 15*time.Minute)
	cfg.Jwt.RefreshTokenTTL = env.GetDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)

	cfg.Transaction.Cooldown = env.GetDuration("TRANSACTION_COOLDOWN", ledger.DefaultCooldown)
	cfg.Transaction.Timeout = env.GetDuration("TRANSACTION_TIMEOUT", ledger.DefaultTimeout)

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "Corebank <no_reply@example.org>")

	cfg.RateLimit.Requests = env.GetInt("RATE_LIMIT_REQUESTS", 20)
	cfg.RateLimit.Window = env.GetDuration("RATE_LIMIT_WINDOW", time.Minute)

	// the admin account is only seeded when both values are set
	cfg.Admin.Email = env.GetString("ADMIN_EMAIL", "")
	cfg.Admin.Password = env.GetString("ADMIN_PASSWORD", "")

	cfg.Cors.AllowedOrigins = env.GetList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	if cfg.FrontendURL != "" {
		cfg.Cors.AllowedOrigins = append(cfg.Cors.AllowedOrigins, cfg.FrontendURL)
	}

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	return cfg
}

// Close releases the connections held by the application.
func (app *Application) Close() {
	app.Kafka.Close()

	if err := app.Cache.Close(); err != nil {
		app.Logger.Warn("failed to close redis client", "error", err.Error())
	}

	if err := app.DB.Close(); err != nil {
		app.Logger.Warn("failed to close database", "error", err.Error())
	}
}
