package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	GatewayModeStore = "store"
	GatewayModeRPC   = "rpc"
)

type Config struct {
	Port    string
	GinMode string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret     string
	JWTExpiration time.Duration

	LogLevel string

	AutosaveInterval   time.Duration
	SessionIdleTimeout time.Duration

	GatewayMode string
	RPCBaseURL  string
	RPCAPIKey   string
	RPCTimeout  time.Duration

	RabbitMQURL   string
	RabbitMQQueue string

	ElasticsearchURL   string
	ElasticsearchIndex string
}

// Load reads the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "flyingbus"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		AutosaveInterval:   getEnvDuration("AUTOSAVE_INTERVAL", 60*time.Second),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),

		GatewayMode: getEnv("GATEWAY_MODE", GatewayModeStore),
		RPCBaseURL:  getEnv("RPC_BASE_URL", ""),
		RPCAPIKey:   getEnv("RPC_API_KEY", ""),
		RPCTimeout:  getEnvDuration("RPC_TIMEOUT", 15*time.Second),

		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue: getEnv("RABBITMQ_QUEUE", "article_events"),

		ElasticsearchURL:   getEnv("ELASTICSEARCH_URL", ""),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	SetJWT(cfg.JWTSecret, cfg.JWTExpiration)
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.GatewayMode {
	case GatewayModeStore:
	case GatewayModeRPC:
		if c.RPCBaseURL == "" {
			return fmt.Errorf("RPC_BASE_URL is required when GATEWAY_MODE=%s", GatewayModeRPC)
		}
	default:
		return fmt.Errorf("unknown GATEWAY_MODE %q", c.GatewayMode)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("AUTOSAVE_INTERVAL must be positive, got %s", c.AutosaveInterval)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
