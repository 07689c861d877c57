// Package redis publishes statistics reports on a Redis pub/sub channel.
//
// NewClient builds a go-redis client from functional options; Publisher encodes each
// report with a serializer and PUBLISHes it behind a circuit breaker.
package redis

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/redis/go-redis/v9"

	"github.com/hyp3rd/tally/internal/constants"
)

// ClientOption configures the redis.Options used by NewClient.
type ClientOption func(*redis.Options)

// WithAddr sets the server address.
func WithAddr(addr string) ClientOption {
	return func(opt *redis.Options) { opt.Addr = addr }
}

// WithCredentials sets the ACL username and password.
func WithCredentials(username, password string) ClientOption {
	return func(opt *redis.Options) {
		opt.Username = username
		opt.Password = password
	}
}

// WithDB selects the database.
func WithDB(db int) ClientOption {
	return func(opt *redis.Options) { opt.DB = db }
}

// WithMaxRetries sets how many times a failed command is retried; -1 disables retries.
func WithMaxRetries(maxRetries int) ClientOption {
	return func(opt *redis.Options) { opt.MaxRetries = maxRetries }
}

// WithTimeouts sets the dial, read and write timeouts. Zero values keep the defaults.
func WithTimeouts(dial, read, write time.Duration) ClientOption {
	return func(opt *redis.Options) {
		if dial > 0 {
			opt.DialTimeout = dial
		}

		if read > 0 {
			opt.ReadTimeout = read
		}

		if write > 0 {
			opt.WriteTimeout = write
		}
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(poolSize int) ClientOption {
	return func(opt *redis.Options) { opt.PoolSize = poolSize }
}

// WithTLSConfig enables TLS.
func WithTLSConfig(tlsConfig *tls.Config) ClientOption {
	return func(opt *redis.Options) { opt.TLSConfig = tlsConfig }
}

// NewClient creates a redis client. An address is required.
func NewClient(opts ...ClientOption) (*redis.Client, error) {
	opt := &redis.Options{
		MaxRetries:   constants.RedisClientMaxRetries,
		DialTimeout:  constants.RedisDialTimeout,
		ReadTimeout:  constants.RedisClientReadTimeout,
		WriteTimeout: constants.RedisClientWriteTimeout,
		PoolSize:     constants.RedisClientPoolSize,
	}

	for _, o := range opts {
		o(opt)
	}

	opt.Dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer := &net.Dialer{Timeout: opt.DialTimeout}

		return dialer.DialContext(ctx, network, addr)
	}

	if strings.TrimSpace(opt.Addr) == "" {
		return nil, ewrap.New("redis address is empty")
	}

	return redis.NewClient(opt), nil
}
