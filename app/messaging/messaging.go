package messaging

import (
	"context"
	"io"
	"time"
)

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic or stream).
type Publisher interface {
	// Publish sends a message and blocks until the broker acknowledges it.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source (subscription or stream).
type Consumer interface {
	// Consume blocks, delivering messages to handler until ctx is cancelled.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
//
// With auto ack enabled a nil error acks the message and a non-nil error
// asks the broker to redeliver it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Attributes are optional string key/values carried next to the payload.
	Attributes map[string]string
}

// PublishResult carries the broker acknowledgment.
type PublishResult struct {
	// MessageID is the broker-assigned message ID.
	MessageID string
	// Topic is the destination the message was accepted on.
	Topic string
}

// Message is a received message.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Attributes returns broker string attributes.
	Attributes() map[string]string
	// ID returns the broker message ID.
	ID() string
	// Timestamp returns the broker publish time.
	Timestamp() time.Time
	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
}

// Nackable can request a message redelivery.
type Nackable interface {
	Nack(ctx context.Context) error
}
