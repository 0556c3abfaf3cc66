package publisher

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(t *testing.T, stream string) (*RedisPublisher, *redis.Client) {
	t.Helper()
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis is not available, skipping test")
	}
	t.Cleanup(func() {
		client.Del(ctx, stream+":0")
		_ = client.Close()
	})
	client.Del(ctx, stream+":0")

	p := NewRedisPublisher("localhost:6379", 0, stream, 1, 2)
	t.Cleanup(func() { _ = p.Close() })
	return p, client
}

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	p, client := newTestPublisher(t, "test_stream_fundgrube")

	require.NoError(t, p.Publish(ctx, "Saturn", []byte("test_message")))

	messages, err := client.XRange(ctx, "test_stream_fundgrube:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	// The message should be base64 encoded
	assert.Equal(t, "dGVzdF9tZXNzYWdl", messages[0].Values["Saturn"])
}

func TestRedisPublisherTrimStreams(t *testing.T) {
	ctx := context.Background()
	p, client := newTestPublisher(t, "test_stream_fundgrube_trim")

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, p.Publish(ctx, "MM", []byte(msg)))
	}
	require.NoError(t, p.TrimStreams(ctx))

	messages, err := client.XRange(ctx, "test_stream_fundgrube_trim:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("three")), messages[1].Values["MM"])
}
