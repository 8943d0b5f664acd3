package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	Env      string
	LogLevel string

	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32

	RedisURL      string
	RedisPassword string
	RedisDB       int

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	Currency          string
	GatewayTimeout    time.Duration

	AuthSecret string
	TokenTTL   time.Duration

	KafkaBrokers string
	KafkaTopic   string
}

// LoadConfig reads the process environment, after merging a .env file
// from the working directory when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "app_user"),
		Password: getEnv("DB_PASSWORD", "postgres_password"),
		DBName:   getEnv("DB_NAME", "quickship"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayBaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		Currency:          strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
		GatewayTimeout:    getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),

		AuthSecret: getEnv("AUTH_SECRET", ""),
		TokenTTL:   getEnvAsDuration("TOKEN_TTL", 24*time.Hour),

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "orders"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first required setting that is missing or unusable.
func (c *Config) Validate() error {
	switch {
	case c.RazorpayKeyID == "":
		return errors.New("config: RAZORPAY_KEY_ID is required")
	case c.RazorpayKeySecret == "":
		return errors.New("config: RAZORPAY_KEY_SECRET is required")
	case len(c.AuthSecret) < 16:
		return errors.New("config: AUTH_SECRET must be at least 16 characters")
	case c.MaxConns <= 0:
		return errors.New("config: DB_MAX_CONNS must be positive")
	case c.GatewayTimeout <= 0:
		return errors.New("config: GATEWAY_TIMEOUT must be positive")
	}
	return nil
}

// DSN renders the key/value connection string understood by pgx.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
