// Package rescache caches resource detail lookups in a key-value store.
package rescache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/db"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

// reader is the decorated resource source.
type reader interface {
	GetResource(ctx context.Context, id string) (resource.Detail, error)
}

// store is the consumer interface for the resource cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedReader serves resource details from the cache when possible.
// Cache failures are logged and never fail the lookup.
type CachedReader struct {
	inner      reader
	store      store
	ttl        time.Duration
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner reader,
	s store,
	ttl time.Duration,
	keyPrefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedReader {
	return &CachedReader{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		prefix:     keyPrefix + "resource:",
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// GetResource returns a cached resource (FromCache=true) or calls the inner reader.
func (c *CachedReader) GetResource(ctx context.Context, id string) (resource.Detail, error) {
	key := c.prefix + strings.ToLower(id)

	if res, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return resource.Detail{Resource: res, FromCache: true}, nil
	}
	c.incCache("miss")

	detail, err := c.inner.GetResource(ctx, id)
	if err != nil {
		return resource.Detail{}, fmt.Errorf("get resource: %w", err)
	}

	c.putToCache(ctx, key, detail.Resource)
	return detail, nil
}

func (c *CachedReader) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedReader) getFromCache(ctx context.Context, key string) (resource.Resource, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached resource", zap.String("key", key), zap.Error(err))
		}
		return resource.Resource{}, false
	}
	if len(data) == 0 {
		return resource.Resource{}, false
	}

	var res resource.Resource
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached resource", zap.String("key", key), zap.Error(err))
		return resource.Resource{}, false
	}
	return res, true
}

func (c *CachedReader) putToCache(ctx context.Context, key string, res resource.Resource) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode resource for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache resource", zap.String("key", key), zap.Error(err))
	}
}
