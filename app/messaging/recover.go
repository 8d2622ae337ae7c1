package messaging

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

func callHandlerWithRecover(logger logrus.FieldLogger, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			logger.WithFields(logrus.Fields{
				"kind":  kind,
				"panic": rvr,
				"stack": string(debug.Stack()),
			}).Error("panic in messaging handler")
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}

// respond acks or nacks msg based on the handler result.
func respond(ctx context.Context, logger logrus.FieldLogger, msg Message, herr error) {
	if herr == nil {
		if err := msg.Ack(ctx); err != nil {
			logger.WithError(err).WithField("message_id", msg.ID()).Warn("ack failed")
		}
		return
	}

	n, ok := msg.(Nackable)
	if !ok {
		return
	}
	if err := n.Nack(ctx); err != nil {
		logger.WithError(err).WithField("message_id", msg.ID()).Warn("nack failed")
	}
}
