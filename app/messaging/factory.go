package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverGooglePubSub selects the Google Pub/Sub backend.
	DriverGooglePubSub = "google-pubsub"
	// DriverRedisStream selects the Redis stream backend.
	DriverRedisStream = "redis-stream"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for supported messaging backends.
type FactoryOptions struct {
	PubSub      PubSubConfig
	RedisStream RedisStreamConfig
}

// NewFromDriver constructs a Messaging implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.TrimSpace(driver) {
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	case DriverRedisStream:
		return NewRedisStream(opts.RedisStream)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
