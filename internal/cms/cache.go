package cms

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"upfitter/showroom/internal/common"
	"upfitter/showroom/internal/metrics"
)

// CachedClient memoizes raw query results. A zero TTL disables caching and
// every call round-trips to the content API.
type CachedClient struct {
	next    RawQuerier
	cache   common.CacheInterface
	ttl     time.Duration
	metrics *metrics.MetricsRegistry
}

var _ Querier = (*CachedClient)(nil)

func NewCachedClient(next RawQuerier, cache common.CacheInterface, ttl time.Duration, m *metrics.MetricsRegistry) *CachedClient {
	return &CachedClient{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
	}
}

func (c *CachedClient) Query(ctx context.Context, name, query string, params map[string]any, out any) error {
	raw, err := c.QueryRaw(ctx, name, query, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Code: ErrCodeDecodeError, Message: GetErrorMessage(ErrCodeDecodeError), Err: err}
	}
	return nil
}

func (c *CachedClient) QueryRaw(ctx context.Context, name, query string, params map[string]any) (json.RawMessage, error) {
	if c.ttl <= 0 || c.cache == nil {
		return c.next.QueryRaw(ctx, name, query, params)
	}

	key, err := cacheKey(query, params)
	if err != nil {
		return c.next.QueryRaw(ctx, name, query, params)
	}

	// Stored as string: survives both the in-memory and the JSON (redis) backends.
	hit := true
	v, err := c.cache.GetOrSet(key, c.ttl, func() (any, error) {
		hit = false
		raw, err := c.next.QueryRaw(ctx, name, query, params)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	})
	if err != nil {
		c.observe(name, false)
		return nil, err
	}
	if s, ok := v.(string); ok {
		c.observe(name, hit)
		return json.RawMessage(s), nil
	}

	// Something else owns the key; drop it and read through.
	c.cache.Delete(key)
	c.observe(name, false)
	raw, err := c.next.QueryRaw(ctx, name, query, params)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, string(raw), c.ttl)
	return raw, nil
}

func (c *CachedClient) observe(name string, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHitsTotal.WithLabelValues(name).Inc()
		return
	}
	c.metrics.CacheMissesTotal.WithLabelValues(name).Inc()
}

func cacheKey(query string, params map[string]any) (string, error) {
	// encoding/json sorts map keys, so equal params hash equally.
	p, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(query+"\x00"), p...))
	return "cmsq:" + hex.EncodeToString(sum[:]), nil
}
