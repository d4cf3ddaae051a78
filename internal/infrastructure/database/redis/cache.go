package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

const cacheName = "network"

// NetworkCache stores built networks as JSON under "<prefix>network:<fingerprint>".
type NetworkCache struct {
	client     *Client
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
	prefix     string
	defaultTTL time.Duration
	jitter     float64
	group      singleflight.Group
}

type CacheOption func(*NetworkCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *NetworkCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *NetworkCache) { c.defaultTTL = ttl }
}

// WithJitter spreads expirations by ±fraction of the TTL.  Zero disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *NetworkCache) { c.jitter = fraction }
}

func WithMetrics(m *prometheus.AppMetrics) CacheOption {
	return func(c *NetworkCache) { c.metrics = m }
}

func NewNetworkCache(client *Client, log logging.Logger, opts ...CacheOption) *NetworkCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &NetworkCache{
		client:     client,
		logger:     log.Named("network_cache"),
		prefix:     "scaffoldnet:",
		defaultTTL: 24 * time.Hour,
		jitter:     0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *NetworkCache) key(fingerprint string) string {
	return c.prefix + "network:" + fingerprint
}

func (c *NetworkCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || c.jitter <= 0 {
		return ttl
	}
	delta := float64(ttl) * c.jitter * (rand.Float64()*2 - 1)
	return ttl + time.Duration(delta)
}

// Get implements scaffold.NetworkCache.
func (c *NetworkCache) Get(ctx context.Context, fingerprint string) (*scaffold.Network, bool, error) {
	data, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if err == redis.Nil {
		prometheus.RecordCacheAccess(c.metrics, cacheName, false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read network from cache")
	}
	var net scaffold.Network
	if err := json.Unmarshal(data, &net); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.logger.Warn("discarding undecodable cache entry", logging.String("fingerprint", fingerprint), logging.Err(err))
		_ = c.client.Del(ctx, c.key(fingerprint)).Err()
		prometheus.RecordCacheAccess(c.metrics, cacheName, false)
		return nil, false, nil
	}
	prometheus.RecordCacheAccess(c.metrics, cacheName, true)
	return &net, true, nil
}

// Set implements scaffold.NetworkCache.  A zero ttl uses the default.
func (c *NetworkCache) Set(ctx context.Context, fingerprint string, net *scaffold.Network, ttl time.Duration) error {
	if net == nil {
		return errors.InvalidParam("network must not be nil")
	}
	data, err := json.Marshal(net)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode network")
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.key(fingerprint), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write network to cache")
	}
	return nil
}

// Invalidate implements scaffold.NetworkCache.
func (c *NetworkCache) Invalidate(ctx context.Context, fingerprint string) error {
	if err := c.client.Del(ctx, c.key(fingerprint)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate network")
	}
	return nil
}

// GetOrBuild returns the cached network for fingerprint, or runs build once
// per fingerprint across concurrent callers and caches its result.  The
// boolean reports a cache hit.
func (c *NetworkCache) GetOrBuild(ctx context.Context, fingerprint string, ttl time.Duration,
	build func(ctx context.Context) (*scaffold.Network, error)) (*scaffold.Network, bool, error) {

	if net, ok, err := c.Get(ctx, fingerprint); err == nil && ok {
		return net, true, nil
	} else if err != nil {
		c.logger.Warn("cache read failed, building anyway", logging.Err(err))
	}

	v, err, _ := c.group.Do(fingerprint, func() (interface{}, error) {
		net, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if setErr := c.Set(ctx, fingerprint, net, ttl); setErr != nil {
			c.logger.Warn("failed to cache network", logging.String("fingerprint", fingerprint), logging.Err(setErr))
		}
		return net, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*scaffold.Network), false, nil
}

var _ scaffold.NetworkCache = (*NetworkCache)(nil)

//Personal.AI order the ending
