package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	AppBaseURL string

	QueueDriver          string
	GCPProjectID         string
	PubSubTopicID        string
	PubSubSubscriptionID string
	PublishTimeout       time.Duration
	ConsumerConcurrency  int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EmailProvider  string
	EmailSender    string
	SendGridAPIKey string
	SendGridHost   string
	AWSRegion      string
	SendTimeout    time.Duration

	LockDriver string
	MySQLDSN   string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("CONSUMER_CONCURRENCY", 10)
	if err != nil {
		return nil, err
	}
	publishTimeout, err := getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sendTimeout, err := getEnvDuration("SEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPHost: getEnv("HTTP_HOST", "0.0.0.0"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),

		QueueDriver:          getEnv("QUEUE_DRIVER", "google-pubsub"),
		GCPProjectID:         getEnv("GCP_PROJECT_ID", ""),
		PubSubTopicID:        getEnv("PUBSUB_TOPIC_ID", "send-email"),
		PubSubSubscriptionID: getEnv("PUBSUB_SUBSCRIPTION_ID", "send-email-dispatcher"),
		PublishTimeout:       publishTimeout,
		ConsumerConcurrency:  concurrency,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		EmailProvider:  getEnv("EMAIL_PROVIDER", "sendgrid"),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@example.com"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		SendGridHost:   getEnv("SENDGRID_HOST", "https://api.sendgrid.com"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		SendTimeout:    sendTimeout,

		LockDriver: getEnv("LOCK_DRIVER", ""),
		MySQLDSN:   getEnv("MYSQL_DSN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
