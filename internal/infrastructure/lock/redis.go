package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	redisPeer        = "redis"
	endpointAcquire  = "lock.acquire"
	endpointRelease  = "lock.release"
	defaultTTL       = 5 * time.Second
	defaultRetry     = 25 * time.Millisecond
	defaultKeyPrefix = "storefront:lock:"
	releaseTimeout   = time.Second
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisOptions struct {
	// TTL bounds how long a crashed holder can block others.
	TTL           time.Duration
	RetryInterval time.Duration
	// WaitTimeout caps how long Lock polls; zero waits until ctx ends.
	WaitTimeout time.Duration
	KeyPrefix   string
}

// RedisLocker serializes holders across processes with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	opts   RedisOptions
	log    observability.Logger

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ application.Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, opts RedisOptions, tel observability.Observability) *RedisLocker {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetry
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	metrics := observability.MetricsOf(tel)
	return &RedisLocker{
		client:       client,
		opts:         opts,
		log:          observability.LoggerOf(tel).With(observability.F("component", "redis_lock")),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.opts.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.WaitTimeout)
		defer cancel()
	}

	redisKey := l.opts.KeyPrefix + key
	token := uuid.NewString()
	start := time.Now()

	ticker := time.NewTicker(l.opts.RetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.opts.TTL).Result()
		switch {
		case err != nil && ctx.Err() == nil:
			l.observe(endpointAcquire, "error", start)
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		case ok:
			l.observe(endpointAcquire, "success", start)
			return l.releaser(ctx, redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			l.observe(endpointAcquire, "timeout", start)
			return nil, fmt.Errorf("%w: %s: %w", application.ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(ctx context.Context, redisKey, token string) func() {
	logger := logctx.FromOr(ctx, l.log)
	var once sync.Once
	return func() { once.Do(func() { l.release(ctx, logger, redisKey, token) }) }
}

func (l *RedisLocker) release(ctx context.Context, logger observability.Logger, redisKey, token string) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	start := time.Now()
	n, err := releaseScript.Run(relCtx, l.client, []string{redisKey}, token).Int()
	switch {
	case err != nil && !errors.Is(err, redis.Nil):
		l.observe(endpointRelease, "error", start)
		logger.Warn("lock_release_failed", observability.F("key", redisKey), observability.F("error", err))
	case n == 0:
		// The TTL ran out and someone else may hold the key now.
		l.observe(endpointRelease, "expired", start)
		logger.Warn("lock_expired_before_release", observability.F("key", redisKey))
	default:
		l.observe(endpointRelease, "success", start)
	}
}

func (l *RedisLocker) observe(endpoint, outcome string, start time.Time) {
	l.extCounter.Add(1,
		observability.L("peer", redisPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	l.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", redisPeer),
		observability.L("endpoint", endpoint),
	)
}
