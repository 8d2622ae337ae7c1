package queue

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/job"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/lock"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/messaging"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/provider"
	"github.com/vibast-solutions/ms-go-email-dispatcher/app/service"
)

type recordingProvider struct {
	sent chan job.EmailJob
}

func (p *recordingProvider) Send(_ context.Context, j job.EmailJob) (provider.Outcome, error) {
	p.sent <- j
	return provider.Outcome{StatusCode: http.StatusAccepted}, nil
}

type fakeConsumer struct {
	source string
	err    error
}

func (c *fakeConsumer) Consume(ctx context.Context, source string, _ messaging.Handler, _ ...messaging.ConsumeOption) error {
	c.source = source
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestEmailConsumerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	fc := &fakeConsumer{}
	consumer := NewEmailConsumer(fc, func(context.Context, messaging.Message) error { return nil }, ConsumerConfig{Topic: "send-email"}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer did not stop")
	}
	if fc.source != "send-email" {
		t.Fatalf("expected topic send-email, got %s", fc.source)
	}
}

func TestEmailConsumerRunSurfacesConsumeError(t *testing.T) {
	t.Parallel()

	logger, _ := test.NewNullLogger()
	consumer := NewEmailConsumer(&fakeConsumer{err: messaging.ErrPubSubSubscriptionRequired}, nil, ConsumerConfig{}, logger)
	if err := consumer.Run(context.Background()); err != messaging.ErrPubSubSubscriptionRequired {
		t.Fatalf("expected consume error, got %v", err)
	}
}

func TestEmailConsumerDispatchesFromRedisStream(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger, _ := test.NewNullLogger()
	stream, err := messaging.NewRedisStream(messaging.RedisStreamConfig{Client: client, Block: 50 * time.Millisecond, Logger: logger})
	if err != nil {
		t.Fatalf("NewRedisStream: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	want := job.EmailJob{To: "a@x.com", Subject: "Hi", Body: "<b>hi</b>"}
	if _, err := NewEmailProducer(stream, "send-email", time.Second, logger).Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	prov := &recordingProvider{sent: make(chan job.EmailJob, 1)}
	dispatcher := service.NewDispatcher(prov, lock.NewRedisLocker(client), time.Second, logger)
	consumer := NewEmailConsumer(stream, dispatcher.Handle, ConsumerConfig{
		Topic:        "send-email",
		Subscription: "send-email-dispatcher",
		ConsumerName: "worker",
		Concurrency:  1,
	}, logger)

	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	select {
	case got := <-prov.sent:
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
	case err := <-done:
		if err != nil && strings.Contains(err.Error(), "unknown command") {
			t.Skipf("streams not supported by miniredis: %v", err)
		}
		t.Fatalf("consumer stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for dispatch")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		pending, err := client.XPending(context.Background(), "send-email", "send-email-dispatcher").Result()
		if err != nil {
			t.Fatalf("XPending: %v", err)
		}
		if pending.Count == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected message to be acked, %d pending", pending.Count)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
