package dupcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/sentinel"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "registrar_dupcheck_cache_lookups_total",
	Help: "Assignment cache lookups by outcome",
}, []string{"outcome"}) // outcome: "hit", "miss", "error"

// assignedKeyPrefix namespaces the assignment index in Redis.
const assignedKeyPrefix = "dupcheck:number:"

// defaultCacheTTL bounds memory, not correctness. An assignment is
// permanent, so a cached owner can never go stale; expiry only means the
// next check reloads it from the store.
const defaultCacheTTL = 24 * time.Hour

// RedisChecker fronts the registration store with a Redis assignment
// index. Each key maps an encoded number to the reference holding it.
// Only assigned numbers are cached: a negative entry could outlive the
// assignment that invalidates it, but a positive one is true forever.
//
// Concurrent checks for the same number collapse into one lookup, and a
// circuit breaker stops write-backs while Redis is unhealthy. Redis
// failures degrade to the store; they never fail the check.
type RedisChecker struct {
	client  *redis.Client
	store   NumberFinder
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
	sf      singleflight.Group
}

// RedisCheckerOption configures a RedisChecker.
type RedisCheckerOption func(*RedisChecker)

// WithCacheTTL overrides the assignment index TTL.
func WithCacheTTL(ttl time.Duration) RedisCheckerOption {
	return func(c *RedisChecker) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger for breaker transitions and write-back
// failures.
func WithLogger(logger *slog.Logger) RedisCheckerOption {
	return func(c *RedisChecker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedisChecker constructs the cache-fronted checker.
func NewRedisChecker(client *redis.Client, store NumberFinder, opts ...RedisCheckerOption) *RedisChecker {
	c := &RedisChecker{
		client:  client,
		store:   store,
		ttl:     defaultCacheTTL,
		logger:  slog.Default(),
		breaker: circuit.New("dupcheck-redis"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisChecker) IsAssigned(ctx context.Context, encoded string, ref id.Reference) (bool, error) {
	owner, err := c.lookupOwner(ctx, encoded)
	if err != nil {
		return false, err
	}
	return owner != "" && owner != ref.String(), nil
}

// lookupOwner resolves the reference holding encoded, or "" when the
// number is unassigned. Concurrent lookups for one number share a single
// flight; the owner is reference-independent, so every waiter can reuse
// the result.
func (c *RedisChecker) lookupOwner(ctx context.Context, encoded string) (string, error) {
	v, err, _ := c.sf.Do(encoded, func() (any, error) {
		return c.fetchOwner(ctx, encoded)
	})
	if err != nil {
		return "", err
	}
	owner, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result type from singleflight")
	}
	return owner, nil
}

func (c *RedisChecker) fetchOwner(ctx context.Context, encoded string) (string, error) {
	if owner, ok := c.cacheGet(ctx, encoded); ok {
		return owner, nil
	}

	reg, err := c.store.FindByNumber(ctx, encoded)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	c.cacheSet(ctx, encoded, reg.Reference.String())
	return reg.Reference.String(), nil
}

// cacheGet reads the assignment index. Any Redis failure counts against
// the breaker and reads as a miss, pushing the check through to the store.
func (c *RedisChecker) cacheGet(ctx context.Context, encoded string) (string, bool) {
	owner, err := c.client.Get(ctx, assignedKeyPrefix+encoded).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.recordSuccess(ctx)
			cacheLookups.WithLabelValues("miss").Inc()
			return "", false
		}
		c.recordFailure(ctx, err)
		cacheLookups.WithLabelValues("error").Inc()
		return "", false
	}
	c.recordSuccess(ctx)
	cacheLookups.WithLabelValues("hit").Inc()
	return owner, true
}

// cacheSet writes through to the assignment index. Write-backs pause while
// the circuit is open; the read path keeps probing and closes it again.
func (c *RedisChecker) cacheSet(ctx context.Context, encoded, owner string) {
	if c.breaker.IsOpen() {
		return
	}
	if err := c.client.Set(ctx, assignedKeyPrefix+encoded, owner, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
		c.logger.WarnContext(ctx, "assignment cache write-back failed",
			"encoded", encoded,
			"error", err,
		)
	}
}

func (c *RedisChecker) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "assignment cache circuit opened",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}

func (c *RedisChecker) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "assignment cache circuit closed",
			"breaker", c.breaker.Name(),
		)
	}
}
