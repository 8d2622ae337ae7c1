package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestRedisStream(t *testing.T) (*RedisStream, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger, _ := test.NewNullLogger()
	stream, err := NewRedisStream(RedisStreamConfig{Client: client, Block: 50 * time.Millisecond, Logger: logger})
	if err != nil {
		t.Fatalf("NewRedisStream: %v", err)
	}
	return stream, client
}

func skipUnsupported(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "unknown command") {
		t.Skipf("streams not supported by miniredis: %v", err)
	}
}

func TestRedisStreamPublish(t *testing.T) {
	t.Parallel()

	stream, client := newTestRedisStream(t)

	res, err := stream.Publish(context.Background(), "emails", OutgoingMessage{
		Body:       []byte(`{"to":"a@b.com"}`),
		Attributes: map[string]string{"request_id": "req-1"},
	})
	skipUnsupported(t, err)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.MessageID == "" || res.Topic != "emails" {
		t.Fatalf("unexpected publish result: %+v", res)
	}

	entries, err := client.XRange(context.Background(), "emails", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	msg := newRedisStreamMessage(client, "emails", "g", entries[0])
	if string(msg.Body()) != `{"to":"a@b.com"}` {
		t.Fatalf("unexpected body: %s", msg.Body())
	}
	if msg.Attributes()["request_id"] != "req-1" {
		t.Fatalf("unexpected attributes: %v", msg.Attributes())
	}
	if msg.Timestamp().IsZero() {
		t.Fatalf("expected timestamp derived from entry id")
	}
}

func TestRedisStreamPublishRequiresStream(t *testing.T) {
	t.Parallel()

	stream, _ := newTestRedisStream(t)
	if _, err := stream.Publish(context.Background(), "", OutgoingMessage{}); !errors.Is(err, ErrRedisStreamRequired) {
		t.Fatalf("expected ErrRedisStreamRequired, got %v", err)
	}
}

func TestRedisStreamConsumeAcksOnSuccess(t *testing.T) {
	t.Parallel()

	stream, client := newTestRedisStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := stream.Publish(ctx, "emails", OutgoingMessage{Body: []byte("payload")}); err != nil {
		skipUnsupported(t, err)
		t.Fatalf("Publish: %v", err)
	}

	received := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- stream.Consume(ctx, "emails", func(_ context.Context, msg Message) error {
			received <- string(msg.Body())
			return nil
		}, WithGroup("dispatchers"), WithConsumerName("c1"), WithAutoAck(true))
	}()

	select {
	case body := <-received:
		if body != "payload" {
			t.Fatalf("unexpected body: %s", body)
		}
	case err := <-done:
		skipUnsupported(t, err)
		t.Fatalf("Consume returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for message")
	}

	waitForPending(t, client, "emails", "dispatchers", 0)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer did not stop")
	}
}

func TestRedisStreamConsumeLeavesFailedPending(t *testing.T) {
	t.Parallel()

	stream, client := newTestRedisStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := stream.Publish(ctx, "emails", OutgoingMessage{Body: []byte("payload")}); err != nil {
		skipUnsupported(t, err)
		t.Fatalf("Publish: %v", err)
	}

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- stream.Consume(ctx, "emails", func(_ context.Context, _ Message) error {
			calls <- struct{}{}
			return errors.New("boom")
		}, WithGroup("dispatchers"), WithConsumerName("c1"), WithAutoAck(true))
	}()

	select {
	case <-calls:
	case err := <-done:
		skipUnsupported(t, err)
		t.Fatalf("Consume returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for message")
	}

	waitForPending(t, client, "emails", "dispatchers", 1)
	cancel()
	<-done
}

func TestRedisStreamConsumeRecoversPanics(t *testing.T) {
	t.Parallel()

	stream, client := newTestRedisStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := stream.Publish(ctx, "emails", OutgoingMessage{Body: []byte("payload")}); err != nil {
		skipUnsupported(t, err)
		t.Fatalf("Publish: %v", err)
	}

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- stream.Consume(ctx, "emails", func(_ context.Context, _ Message) error {
			calls <- struct{}{}
			panic("handler exploded")
		}, WithGroup("dispatchers"), WithAutoAck(true))
	}()

	select {
	case <-calls:
	case err := <-done:
		skipUnsupported(t, err)
		t.Fatalf("Consume returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for message")
	}

	waitForPending(t, client, "emails", "dispatchers", 1)
	cancel()
	<-done
}

func TestRedisStreamConsumeRequiresGroup(t *testing.T) {
	t.Parallel()

	stream, _ := newTestRedisStream(t)
	err := stream.Consume(context.Background(), "emails", func(context.Context, Message) error { return nil })
	if !errors.Is(err, ErrRedisGroupRequired) {
		t.Fatalf("expected ErrRedisGroupRequired, got %v", err)
	}
}

func TestCallHandlerWithRecover(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	err := callHandlerWithRecover(logger, "test", func() error { panic("x") })
	if err == nil || !strings.Contains(err.Error(), "panic in test handler") {
		t.Fatalf("expected panic error, got %v", err)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected panic to be logged at error level")
	}
}

func waitForPending(t *testing.T, client *redis.Client, stream, group string, want int64) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	var got int64
	for time.Now().Before(deadline) {
		pending, err := client.XPending(context.Background(), stream, group).Result()
		if err != nil {
			skipUnsupported(t, err)
			t.Fatalf("XPending: %v", err)
		}
		got = pending.Count
		if got == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected %d pending, got %d", want, got)
}
