package mocks

import (
	"time"

	"github.com/cradoe/corebank/internal/config"
)

func NewConfig() *config.Config {
	cfg := &config.Config{
		BaseURL:      "http://localhost",
		HttpPort:     8080,
		FrontendURL:  "http://localhost:5173",
		RedisServer:  "localhost:6379",
		KafkaServers: "localhost:9092",
	}

	cfg.Db.Dsn = "mock_dsn"
	cfg.Jwt.SecretKey = "test_secret"
	cfg.Jwt.AccessTokenTTL = 15 * time.Minute
	cfg.Jwt.RefreshTokenTTL = 168 * time.Hour
	cfg.Notifications.Email = "alerts@example.com"
	cfg.Smtp.Host = "smtp.example.com"
	cfg.Smtp.Port = 587
	cfg.Smtp.Username = "user@example.com"
	cfg.Smtp.Password = "password"
	cfg.Smtp.From = "no-reply@example.com"
	cfg.Transaction.Cooldown = 3 * time.Minute
	cfg.Transaction.Timeout = 5 * time.Second
	cfg.RateLimit.Requests = 10
	cfg.RateLimit.Window = time.Minute
	cfg.Admin.Email = "admin@example.com"
	cfg.Admin.Password = "Adm1n!Passw0rd"

	return cfg
}
