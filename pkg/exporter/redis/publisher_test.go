package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/internal/libs/serializer"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient(
		WithAddr(mr.Addr()),
		WithMaxRetries(-1),
		WithTimeouts(100*time.Millisecond, 100*time.Millisecond, 100*time.Millisecond),
		WithPoolSize(2),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()

		mr.Close()
	})

	return client, mr
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient(WithAddr("  "))
	assert.Error(t, err)
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(nil)
	assert.Error(t, err)

	client, _ := newTestClient(t)

	_, err = NewPublisher(client, WithSerializer("yaml"))
	assert.Error(t, err)
}

func TestPublisher_PublishesReport(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "stats")
	defer func() { _ = sub.Close() }()

	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher, err := NewPublisher(client, WithChannel("stats"), WithSerializer("json"))
	require.NoError(t, err)
	assert.Equal(t, "stats", publisher.Channel())

	stats := tally.New()
	require.NoError(t, stats.AddOccurrences("requests", 7))
	require.NoError(t, stats.AddSample("latency", 2))

	require.NoError(t, publisher.Publish(ctx, stats.Snapshot().Report()))

	msgCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	msg, err := sub.ReceiveMessage(msgCtx)
	require.NoError(t, err)
	assert.Equal(t, "stats", msg.Channel)

	codec, err := serializer.New("json")
	require.NoError(t, err)

	var report tally.Report

	require.NoError(t, codec.Unmarshal([]byte(msg.Payload), &report))
	assert.Equal(t, []tally.CounterEntry{{Name: "requests", Count: 7}}, report.Counters)
	require.Len(t, report.Samples, 1)
	assert.Equal(t, "latency", report.Samples[0].Name)
}

// failingClient fails every publish.
type failingClient struct {
	calls atomic.Int64
}

func (c *failingClient) Publish(context.Context, string, any) *redis.IntCmd {
	c.calls.Add(1)

	return redis.NewIntResult(0, errors.New("connection refused"))
}

func TestPublisher_BreakerOpens(t *testing.T) {
	client := &failingClient{}

	publisher, err := NewPublisher(client, WithBreaker(2, time.Minute))
	require.NoError(t, err)

	report := tally.New().Snapshot().Report()

	for range 2 {
		assert.Error(t, publisher.Publish(context.Background(), report))
	}

	assert.Equal(t, gobreaker.StateOpen, publisher.State())

	err = publisher.Publish(context.Background(), report)
	assert.ErrorIs(t, err, ErrOpenState)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestPublisher_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient(WithAddr(mr.Addr()), WithMaxRetries(-1))
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	publisher, err := NewPublisher(client, WithBreaker(1, time.Minute))
	require.NoError(t, err)

	mr.Close()

	report := tally.New().Snapshot().Report()
	assert.Error(t, publisher.Publish(context.Background(), report))
	assert.ErrorIs(t, publisher.Publish(context.Background(), report), ErrOpenState)
}
