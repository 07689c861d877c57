package redis

import (
	"context"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/hyp3rd/tally"
	"github.com/hyp3rd/tally/internal/constants"
	"github.com/hyp3rd/tally/internal/libs/serializer"
	"github.com/hyp3rd/tally/internal/sentinel"
)

// ErrOpenState is returned by Publish while the circuit breaker is open.
var ErrOpenState = gobreaker.ErrOpenState

// PublishClient is the subset of the go-redis API the publisher needs.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithSerializer sets the report encoding by registry name (json, msgpack, cbor).
func WithSerializer(name string) Option {
	return func(p *Publisher) { p.serializerName = name }
}

// WithBreaker sets after how many consecutive failures the breaker opens, and for how long.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(p *Publisher) {
		if failures > 0 {
			p.breakerFailures = failures
		}

		if openFor > 0 {
			p.breakerTimeout = openFor
		}
	}
}

// WithLogger sets the logger notified of breaker state changes.
func WithLogger(logger tally.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Publisher is a tally.Sink publishing every report on a Redis channel.
type Publisher struct {
	client          PublishClient
	channel         string
	serializerName  string
	codec           serializer.ISerializer
	breakerFailures uint32
	breakerTimeout  time.Duration
	breaker         *gobreaker.CircuitBreaker[int64]
	logger          tally.Logger
}

// NewPublisher returns a publisher over client.
func NewPublisher(client PublishClient, opts ...Option) (*Publisher, error) {
	if client == nil {
		return nil, sentinel.ErrNilClient
	}

	p := &Publisher{
		client:          client,
		channel:         constants.RedisChannel,
		serializerName:  constants.DefaultSerializer,
		breakerFailures: constants.RedisBreakerFailures,
		breakerTimeout:  constants.RedisBreakerTimeout,
		logger:          tally.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	codec, err := serializer.New(p.serializerName)
	if err != nil {
		return nil, err
	}

	p.codec = codec
	p.breaker = gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        "redis-publish:" + p.channel,
		MaxRequests: 1,
		Timeout:     p.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= p.breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Infof("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return p, nil
}

// Channel returns the channel reports are published on.
func (p *Publisher) Channel() string {
	return p.channel
}

// State returns the circuit breaker state.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

// Publish encodes report and publishes it. It implements tally.Sink.
func (p *Publisher) Publish(ctx context.Context, report tally.Report) error {
	payload, err := p.codec.Marshal(report)
	if err != nil {
		return ewrap.Wrap(err, "encode report")
	}

	_, err = p.breaker.Execute(func() (int64, error) {
		return p.client.Publish(ctx, p.channel, payload).Result()
	})
	if err != nil {
		return ewrap.Wrap(err, "publish report")
	}

	return nil
}
