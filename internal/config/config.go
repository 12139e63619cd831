package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type App struct {
	Env             string `yaml:"env"`
	Port            int    `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	SendLimitPerMin int    `yaml:"send_limit_per_min"`
}

func (a *App) PortString() string { return fmt.Sprintf("%d", a.Port) }

func (a *App) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

type Mongo struct {
	URI        string `yaml:"uri"`
	DB         string `yaml:"db"`
	Collection string `yaml:"collection"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type JWT struct {
	HSSecret string `yaml:"hs_secret"`
}

type Directory struct {
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	RetryMaxElapsed string `yaml:"retry_max_elapsed"`
	CacheTTL        string `yaml:"cache_ttl"`
}

type Messaging struct {
	AdminInboxID string `yaml:"admin_inbox_id"`
}

type Config struct {
	App       App       `yaml:"app"`
	Mongo     Mongo     `yaml:"mongo"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	JWT       JWT       `yaml:"jwt"`
	Directory Directory `yaml:"directory"`
	Messaging Messaging `yaml:"messaging"`
}

// Load reads the yaml config file, then applies environment overrides.
// A missing .env file is fine; explicit environment always wins.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(cfg)

	if cfg.JWT.HSSecret == "" {
		return nil, fmt.Errorf("jwt secret is required (set JWT_HS_SECRET)")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: App{
			Env:             "development",
			Port:            8084,
			ShutdownTimeout: "10s",
			RateLimitPerMin: 300,
			SendLimitPerMin: 60,
		},
		Mongo: Mongo{
			URI:        "mongodb://localhost:27017",
			DB:         "kvision",
			Collection: "conversations",
		},
		Redis: Redis{Addr: "localhost:6379"},
		Kafka: Kafka{Topic: "messaging.events"},
		Directory: Directory{
			BaseURL:         "http://localhost:8081",
			Timeout:         "5s",
			RetryMaxElapsed: "15s",
			CacheTTL:        "30s",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		cfg.Mongo.DB = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_HS_SECRET"); v != "" {
		cfg.JWT.HSSecret = v
	}
	if v := os.Getenv("DIRECTORY_BASE_URL"); v != "" {
		cfg.Directory.BaseURL = v
	}
	if v := os.Getenv("ADMIN_INBOX_ID"); v != "" {
		cfg.Messaging.AdminInboxID = v
	}
}

// Duration parses one of the duration-typed config strings with a fallback.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
