package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/messaging"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/service"
)

// DefaultPublishTimeout bounds the wait for the channel acknowledgment.
const DefaultPublishTimeout = 30 * time.Second

// ErrPublish is returned when a job was not accepted by the channel.
var ErrPublish = errors.New("publish email job")

type EmailProducer struct {
	publisher messaging.Publisher
	topic     string
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// NewEmailProducer constructs a producer publishing to topic.
func NewEmailProducer(publisher messaging.Publisher, topic string, timeout time.Duration, logger logrus.FieldLogger) *EmailProducer {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EmailProducer{publisher: publisher, topic: topic, timeout: timeout, logger: logger}
}

// Publish encodes the job, pushes it onto the topic and waits for the channel to accept it.
//
// The returned ID is the one assigned by the channel. Publish never retries.
func (p *EmailProducer) Publish(ctx context.Context, j job.EmailJob) (string, error) {
	if err := j.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublish, err)
	}

	payload, err := job.Encode(j)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}

	ctx, requestID := service.EnsureRequestID(ctx)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.publisher.Publish(ctx, p.topic, messaging.OutgoingMessage{
		Body:       payload,
		Attributes: map[string]string{service.RequestIDAttribute: requestID},
	})
	if err != nil {
		return "", fmt.Errorf("%w to %s: %w", ErrPublish, p.topic, err)
	}
	if res.MessageID == "" {
		return "", fmt.Errorf("%w to %s: channel returned no message id", ErrPublish, p.topic)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":      p.topic,
		"message_id": res.MessageID,
		"request_id": requestID,
	}).Info("published email job")

	return res.MessageID, nil
}
