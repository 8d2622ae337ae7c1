package messaging

type consumeOptions struct {
	// concurrency is the number of handlers processing messages in parallel.
	concurrency int

	// autoAck makes the driver ack on a nil handler error and nack otherwise.
	autoAck bool

	// subscription is the Google Pub/Sub subscription name.
	subscription string

	// group is the Redis stream consumer group.
	group string

	// consumerName identifies this worker inside a Redis consumer group.
	consumerName string

	// maxInFlight limits outstanding unacknowledged messages.
	maxInFlight int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	var co consumeOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&co)
	}
	return co
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithSubscription sets the subscription name (Google Pub/Sub).
func WithSubscription(subscription string) ConsumeOption {
	return func(o *consumeOptions) { o.subscription = subscription }
}

// WithGroup sets the consumer group name (Redis streams).
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithConsumerName sets the consumer name inside the group (Redis streams).
func WithConsumerName(name string) ConsumeOption {
	return func(o *consumeOptions) { o.consumerName = name }
}

// WithAutoAck controls whether the driver acks/nacks after the handler returns.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithMaxInFlight limits the number of unacknowledged messages in flight.
func WithMaxInFlight(maxInFlight int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = maxInFlight }
}
