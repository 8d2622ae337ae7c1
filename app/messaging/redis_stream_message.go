package messaging

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStreamMessage struct {
	client *redis.Client
	stream string
	group  string
	msg    redis.XMessage

	responded atomic.Bool
}

func newRedisStreamMessage(client *redis.Client, stream, group string, msg redis.XMessage) *redisStreamMessage {
	return &redisStreamMessage{client: client, stream: stream, group: group, msg: msg}
}

func (m *redisStreamMessage) Body() []byte {
	data, _ := m.msg.Values[streamFieldData].(string)
	if data == "" {
		return nil
	}
	return []byte(data)
}

func (m *redisStreamMessage) Attributes() map[string]string {
	var attrs map[string]string
	for k, v := range m.msg.Values {
		name, ok := strings.CutPrefix(k, streamAttributePrefix)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[name] = s
	}
	return attrs
}

func (m *redisStreamMessage) ID() string { return m.msg.ID }

// Timestamp derives the publish time from the millisecond part of the entry ID.
func (m *redisStreamMessage) Timestamp() time.Time {
	ms, _, _ := strings.Cut(m.msg.ID, "-")
	v, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(v)
}

func (m *redisStreamMessage) Ack(ctx context.Context) error {
	if m.responded.Swap(true) {
		return nil
	}
	return m.client.XAck(ctx, m.stream, m.group, m.msg.ID).Err()
}

// Nack leaves the entry in the pending list for redelivery.
func (m *redisStreamMessage) Nack(_ context.Context) error {
	m.responded.Store(true)
	return nil
}
