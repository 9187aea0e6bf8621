package config

import (
	"os"
	"strconv"
	"time"

	"tiketi/internal/cache"
	"tiketi/internal/database"
	"tiketi/internal/external"
	"tiketi/internal/messaging"
	"tiketi/internal/search"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	NotifyBuffer int

	Database      database.Config
	NATS          messaging.Config
	Payment       external.PaymentConfig
	Valkey        cache.Config
	Elasticsearch search.Config
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		NotifyBuffer: getEnvInt("NOTIFY_BUFFER", 256),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "tiketi"),
			Password:           getEnv("DB_PASSWORD", "tiketi123"),
			DBName:             getEnv("DB_NAME", "tiketi"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "tiketi"),
			ClientID:  getEnv("NATS_CLIENT_ID", "tiketi-api"),
		},

		Payment: external.PaymentConfig{
			BaseURL:   getEnv("PAYMENT_GATEWAY_URL", "https://api.paystack.co"),
			SecretKey: getEnv("PAYMENT_SECRET_KEY", ""),
			Timeout:   time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 10)) * time.Second,
		},

		Valkey: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     getEnv("VALKEY_PASSWORD", ""),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
		},

		Elasticsearch: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "events"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
