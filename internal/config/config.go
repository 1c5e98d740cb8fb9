package config

import "time"

type Config struct {
	BaseURL     string
	HttpPort    int
	FrontendURL string
	Db          struct {
		Dsn         string
		Automigrate bool
	}
	Jwt struct {
		SecretKey       string
		AccessTokenTTL  time.Duration
		RefreshTokenTTL time.Duration
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Transaction struct {
		Cooldown time.Duration
		Timeout  time.Duration
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	Admin struct {
		Email    string
		Password string
	}
	Cors struct {
		AllowedOrigins []string
	}
	RedisServer  string
	KafkaServers string
}
