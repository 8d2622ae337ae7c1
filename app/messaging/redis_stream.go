package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	streamFieldData       = "data"
	streamAttributePrefix = "attr:"
)

var (
	// ErrRedisClientRequired is returned when no Redis client is configured.
	ErrRedisClientRequired = errors.New("messaging: redis client is required")
	// ErrRedisStreamRequired is returned when the stream name is empty.
	ErrRedisStreamRequired = errors.New("messaging: redis stream is required")
	// ErrRedisGroupRequired is returned when Consume is called without WithGroup.
	ErrRedisGroupRequired = errors.New("messaging: redis consumer group is required")
)

// RedisStreamConfig configures the Redis stream implementation.
type RedisStreamConfig struct {
	Client *redis.Client
	// Block is how long one XREADGROUP call waits for new entries.
	Block  time.Duration
	Logger logrus.FieldLogger
}

// RedisStream is a messaging implementation backed by Redis streams and consumer groups.
//
// Entries that are not acked stay in the group's pending list and are
// re-read by the same consumer name on its next start.
type RedisStream struct {
	client *redis.Client
	block  time.Duration
	logger logrus.FieldLogger
}

// NewRedisStream constructs a Redis stream messaging client.
func NewRedisStream(cfg RedisStreamConfig) (*RedisStream, error) {
	if cfg.Client == nil {
		return nil, ErrRedisClientRequired
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisStream{client: cfg.Client, block: block, logger: logger}, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStream) Close() error {
	return nil
}

// Publish appends a message to the stream. The XADD reply is the acknowledgment.
func (s *RedisStream) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrRedisStreamRequired
	}

	values := map[string]interface{}{streamFieldData: string(msg.Body)}
	for k, v := range msg.Attributes {
		values[streamAttributePrefix+k] = v
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: destination,
		Values: values,
	}).Result()
	if err != nil {
		return PublishResult{}, fmt.Errorf("xadd to %s: %w", destination, err)
	}
	return PublishResult{MessageID: id, Topic: destination}, nil
}

// Consume reads the stream through a consumer group and blocks until ctx is cancelled.
//
// WithConcurrency starts that many readers, each under its own consumer name.
func (s *RedisStream) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrRedisStreamRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrRedisGroupRequired
	}
	if err := s.ensureGroup(ctx, source, co.group); err != nil {
		return err
	}

	name := co.consumerName
	if name == "" {
		name = "consumer"
	}
	workers := co.concurrency
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		consumer := name
		if workers > 1 {
			consumer = fmt.Sprintf("%s-%d", name, i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.readLoop(ctx, source, co.group, consumer, handler, co.autoAck)
		}()
	}
	wg.Wait()
	return nil
}

func (s *RedisStream) readLoop(ctx context.Context, stream, group, consumer string, handler Handler, autoAck bool) {
	logger := s.logger.WithFields(logrus.Fields{"stream": stream, "group": group, "consumer": consumer})
	logger.Info("consumer started")

	// First drain pending messages, then switch to reading new ones.
	startID := "0"
	for {
		select {
		case <-ctx.Done():
			logger.Info("consumer shutting down")
			return
		default:
		}

		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, startID},
			Count:    1,
			Block:    s.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				startID = ">"
				continue
			}
			if ctx.Err() != nil {
				logger.Info("consumer shutting down")
				return
			}
			logger.WithError(err).Error("xreadgroup failed")
			time.Sleep(time.Second)
			continue
		}

		for _, st := range streams {
			if len(st.Messages) == 0 && startID != ">" {
				startID = ">"
				continue
			}
			for _, xm := range st.Messages {
				msg := newRedisStreamMessage(s.client, stream, group, xm)
				herr := callHandlerWithRecover(logger, "redis-stream", func() error {
					return handler(ctx, msg)
				})
				if herr != nil {
					logger.WithError(herr).WithField("message_id", xm.ID).Warn("message left pending")
				}
				if autoAck {
					respond(ctx, logger, msg, herr)
				}
				if startID != ">" {
					startID = xm.ID
				}
			}
		}
	}
}

// ensureGroup creates the stream and consumer group if missing.
func (s *RedisStream) ensureGroup(ctx context.Context, stream, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", group, err)
	}
	return nil
}
