package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/lock"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/logging"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/messaging"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/provider"
	"github.com/vibast-solutions/ms-go-email-dispatcher/config"
)

const (
	lockDriverRedis = "redis"
	lockDriverMySQL = "mysql"
)

// mustLoad reads configuration and builds the process logger.
func mustLoad() (*config.Config, *logrus.Logger) {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	return cfg, logger
}

// resources owns the connections opened for one command run.
type resources struct {
	redis *redis.Client
	db    *sql.DB
	msg   messaging.Messaging
}

func (r *resources) Close() {
	if r.msg != nil {
		_ = r.msg.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	if r.db != nil {
		_ = r.db.Close()
	}
}

// redisClient lazily opens and pings the shared Redis client.
func (r *resources) redisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if r.redis != nil {
		return r.redis, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	r.redis = rdb
	return rdb, nil
}

func buildMessaging(ctx context.Context, cfg *config.Config, res *resources, logger logrus.FieldLogger) (messaging.Messaging, error) {
	opts := messaging.FactoryOptions{
		PubSub: messaging.PubSubConfig{
			ProjectID: cfg.GCPProjectID,
			Logger:    logger,
		},
		RedisStream: messaging.RedisStreamConfig{
			Logger: logger,
		},
	}

	if strings.TrimSpace(cfg.QueueDriver) == messaging.DriverRedisStream {
		rdb, err := res.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts.RedisStream.Client = rdb
	}

	m, err := messaging.NewFromDriver(ctx, cfg.QueueDriver, opts)
	if err != nil {
		return nil, err
	}
	res.msg = m
	return m, nil
}

func buildEmailProvider(ctx context.Context, cfg *config.Config) (provider.EmailProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "", "sendgrid":
		return provider.NewSendGridProvider(provider.SendGridConfig{
			APIKey: cfg.SendGridAPIKey,
			Host:   cfg.SendGridHost,
			Sender: cfg.EmailSender,
		}), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return provider.NewSESProvider(awsCfg, cfg.EmailSender), nil
	case "noop":
		return provider.NewNoopProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.EmailProvider)
	}
}

// buildLocker returns nil when locking is disabled.
func buildLocker(ctx context.Context, cfg *config.Config, res *resources) (lock.Locker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LockDriver)) {
	case "":
		return nil, nil
	case lockDriverRedis:
		rdb, err := res.redisClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return lock.NewRedisLocker(rdb), nil
	case lockDriverMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping mysql: %w", err)
		}
		res.db = db
		return lock.NewMySQLLocker(db), nil
	default:
		return nil, fmt.Errorf("unsupported LOCK_DRIVER: %s", cfg.LockDriver)
	}
}
