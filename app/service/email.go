package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/lock"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/messaging"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/provider"
)

// Dispatcher decodes email jobs received from the channel and hands them to the provider.
//
// Each message gets at most one delivery attempt. Provider rejections and
// transport failures are logged and the message is treated as handled;
// decode and configuration errors are returned so the channel can redeliver.
type Dispatcher struct {
	provider    provider.EmailProvider
	locker      lock.Locker
	sendTimeout time.Duration
	logger      logrus.FieldLogger
}

// NewDispatcher builds the dispatcher with dependencies. A nil locker disables locking.
func NewDispatcher(provider provider.EmailProvider, locker lock.Locker, sendTimeout time.Duration, logger logrus.FieldLogger) *Dispatcher {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{provider: provider, locker: locker, sendTimeout: sendTimeout, logger: logger}
}

// Handle processes one channel message. It satisfies messaging.Handler.
func (d *Dispatcher) Handle(ctx context.Context, msg messaging.Message) error {
	logger := d.logger.WithFields(logrus.Fields{
		"message_id":   msg.ID(),
		"request_id":   RequestIDFromMessage(msg),
		"publish_time": msg.Timestamp(),
	})

	body := msg.Body()
	if len(body) == 0 {
		logger.Warn("no message data found, skipping")
		return nil
	}

	lockKey := lock.DispatchKey(msg.ID())
	if err := d.locker.Acquire(ctx, lockKey, lock.DefaultTTL); err != nil {
		return fmt.Errorf("acquire lock for message %s: %w", msg.ID(), err)
	}
	defer func() {
		if err := d.locker.Release(context.Background(), lockKey); err != nil {
			logger.WithError(err).Warn("failed to release dispatch lock")
		}
	}()

	j, err := job.Decode(body)
	if err != nil {
		logger.WithError(err).Error("error processing message")
		return err
	}

	return d.dispatch(ctx, logger.WithField("recipient", j.To), j)
}

func (d *Dispatcher) dispatch(ctx context.Context, logger logrus.FieldLogger, j job.EmailJob) error {
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	outcome, err := d.provider.Send(ctx, j)
	if err != nil {
		if errors.Is(err, provider.ErrConfiguration) {
			logger.WithError(err).Error("email provider is not configured")
			return err
		}
		logger.WithError(err).Error("failed to send email")
		return nil
	}

	logger = logger.WithField("status_code", outcome.StatusCode)
	if !outcome.Success() {
		logger.WithField("response_body", outcome.Body).Error("failed to send email")
		return nil
	}

	logger.Info("email sent")
	return nil
}
