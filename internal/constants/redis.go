package constants

import "time"

const (
	// RedisChannel is the default pub/sub channel snapshots are published on.
	RedisChannel = "tally.snapshots"
	// RedisDialTimeout is the timeout for the Redis dialer.
	RedisDialTimeout = 5 * time.Second
	// RedisClientMaxRetries is the maximum number of retries for the Redis client.
	RedisClientMaxRetries = 3
	// RedisClientReadTimeout is the read timeout for the Redis client.
	RedisClientReadTimeout = 3 * time.Second
	// RedisClientWriteTimeout is the write timeout for the Redis client.
	RedisClientWriteTimeout = 3 * time.Second
	// RedisClientPoolSize is the pool size for the Redis client.
	RedisClientPoolSize = 4
	// RedisBreakerTimeout is how long the publish circuit breaker stays open.
	RedisBreakerTimeout = 30 * time.Second
	// RedisBreakerFailures is the number of consecutive publish failures that open the breaker.
	RedisBreakerFailures = 5
)
