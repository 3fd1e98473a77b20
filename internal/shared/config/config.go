package config

import (
	"fmt"
	"strings"
	"time"

	"coords-bot/internal/shared/utils"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Frontend  FrontendConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	NATS      NATSConfig
	Bot       BotConfig
	Dedupe    DedupeConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// AuthConfig covers the bearer token presented by chat relays. There are no
// end-user accounts.
type AuthConfig struct {
	Enabled         bool
	RelaySecret     string
	TokenExpiration time.Duration
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

type NATSConfig struct {
	Enabled bool
	URL     string
	Subject string
	Queue   string
}

type BotConfig struct {
	Prefix      string
	Name        string
	Description string
	Author      string
}

type DedupeConfig struct {
	TTL time.Duration
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

// Load reads the configuration from the environment and validates it without
// touching GlobalConfig.
func Load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Auth:      loadAuthConfig(),
		Frontend:  loadFrontendConfig(),
		Logging:   loadLoggingConfig(),
		RateLimit: loadRateLimitConfig(),
		NATS:      loadNATSConfig(),
		Bot:       loadBotConfig(),
		Dedupe:    loadDedupeConfig(),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:         utils.GetEnv("SERVER_PORT", "8080"),
		Environment:  utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(utils.GetEnvInt("SERVER_READ_TIMEOUT_SECONDS", 15)) * time.Second,
		WriteTimeout: time.Duration(utils.GetEnvInt("SERVER_WRITE_TIMEOUT_SECONDS", 15)) * time.Second,
		IdleTimeout:  time.Duration(utils.GetEnvInt("SERVER_IDLE_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := utils.GetEnv("DATABASE_URL", "")
	// Heroku style URLs still use the legacy scheme.
	if strings.HasPrefix(url, "postgres://") {
		url = strings.Replace(url, "postgres://", "postgresql://", 1)
	}

	return DatabaseConfig{
		Driver:          strings.ToLower(utils.GetEnv("DB_DRIVER", DriverPostgres)),
		URL:             url,
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "coords"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		SQLitePath:      utils.GetEnv("DB_SQLITE_PATH", "data/coords.db"),
		MaxOpenConns:    utils.GetEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    utils.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: time.Duration(utils.GetEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:  utils.GetEnv("REDIS_ENABLED", "false") == "true",
		URL:      utils.GetEnv("REDIS_URL", ""),
		Host:     utils.GetEnv("REDIS_HOST", "localhost"),
		Port:     utils.GetEnv("REDIS_PORT", "6379"),
		Password: utils.GetEnv("REDIS_PASSWORD", ""),
		DB:       utils.GetEnvInt("REDIS_DB", 0),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Enabled:         utils.GetEnv("RELAY_AUTH_ENABLED", "false") == "true",
		RelaySecret:     utils.GetEnv("RELAY_SECRET", ""),
		TokenExpiration: time.Duration(utils.GetEnvInt("RELAY_TOKEN_EXPIRATION_HOURS", 720)) * time.Hour,
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		JSONFormat: environment == "production",
	}
}

func loadRateLimitConfig() RateLimitConfig {
	requestsPerSecond := float64(utils.GetEnvInt("RATE_LIMIT_REQUESTS_PER_SECOND", 5))

	return RateLimitConfig{
		Enabled:           utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         utils.GetEnvInt("RATE_LIMIT_BURST_SIZE", 10),
		TrustProxy:        utils.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
	}
}

func loadNATSConfig() NATSConfig {
	return NATSConfig{
		Enabled: utils.GetEnv("NATS_ENABLED", "false") == "true",
		URL:     utils.GetEnv("NATS_URL", "nats://127.0.0.1:4222"),
		Subject: utils.GetEnv("NATS_SUBJECT", "coords.commands"),
		Queue:   utils.GetEnv("NATS_QUEUE", "coords-bot"),
	}
}

func loadBotConfig() BotConfig {
	return BotConfig{
		Prefix:      utils.GetEnv("BOT_PREFIX", "!"),
		Name:        utils.GetEnv("BOT_NAME", "CoordsBot"),
		Description: utils.GetEnv("BOT_DESCRIPTION", "A bot for storing and retrieving game data"),
		Author:      utils.GetEnv("BOT_AUTHOR", "Caerisse"),
	}
}

func loadDedupeConfig() DedupeConfig {
	return DedupeConfig{
		TTL: utils.GetEnvDuration("DEDUPE_TTL", 15*time.Minute),
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DB_HOST is required")
		}
		if c.Database.URL == "" && c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DB_SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.Enabled && len(c.Auth.RelaySecret) < 32 {
		return fmt.Errorf("RELAY_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Bot.Prefix == "" {
		return fmt.Errorf("BOT_PREFIX is required")
	}

	if c.NATS.Enabled && c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS is enabled")
	}

	return nil
}

// ConnectionString returns the lib/pq DSN for the postgres driver.
func (c DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}
