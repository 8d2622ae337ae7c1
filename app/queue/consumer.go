package queue

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/messaging"
)

// ConsumerConfig names where the consumer reads from.
type ConsumerConfig struct {
	Topic        string
	Subscription string
	ConsumerName string
	Concurrency  int
}

type EmailConsumer struct {
	consumer messaging.Consumer
	handler  messaging.Handler
	cfg      ConsumerConfig
	logger   logrus.FieldLogger
}

// NewEmailConsumer constructs a consumer that feeds every message to handler.
func NewEmailConsumer(consumer messaging.Consumer, handler messaging.Handler, cfg ConsumerConfig, logger logrus.FieldLogger) *EmailConsumer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EmailConsumer{consumer: consumer, handler: handler, cfg: cfg, logger: logger}
}

// Run starts the consumer loop and blocks until context cancellation.
func (c *EmailConsumer) Run(ctx context.Context) error {
	c.logger.WithFields(logrus.Fields{
		"topic":        c.cfg.Topic,
		"subscription": c.cfg.Subscription,
		"consumer":     c.cfg.ConsumerName,
		"concurrency":  c.cfg.Concurrency,
	}).Info("consumer started")

	err := c.consumer.Consume(ctx, c.cfg.Topic, c.handler,
		messaging.WithSubscription(c.cfg.Subscription),
		messaging.WithGroup(c.cfg.Subscription),
		messaging.WithConsumerName(c.cfg.ConsumerName),
		messaging.WithConcurrency(c.cfg.Concurrency),
		messaging.WithMaxInFlight(c.cfg.Concurrency),
		messaging.WithAutoAck(true),
	)
	if err != nil && ctx.Err() == nil {
		return err
	}

	c.logger.Info("consumer stopped")
	return nil
}
