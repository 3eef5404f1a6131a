// Package cache deduplicates identical optimization requests within a
// freshness window. Identical (caller, payload) pairs return the stored
// result verbatim while the entry is fresh.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fleetroute/internal/metrics"
	"fleetroute/internal/model"
)

// DefaultTTL is the idempotency window for optimization results.
const DefaultTTL = 10 * time.Minute

// Store is the key/value collaborator behind the cache. Implementations
// report entry age so the cache can judge freshness; a store that expires
// entries itself (Redis) may always report zero age.
type Store interface {
	Get(ctx context.Context, callerID, payloadHash string) (value []byte, age time.Duration, ok bool, err error)
	Set(ctx context.Context, callerID, payloadHash string, value []byte) error
}

// Cache wraps a Store with hashing and freshness logic. Store failures are
// logged and degrade to compute-every-time; they never fail the request.
type Cache struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
}

func New(store Store, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl, log: log}
}

// PayloadHash returns the hex SHA-256 of the canonical request payload.
// Struct marshaling emits fields in declaration order, so semantically
// identical requests hash identically regardless of incoming JSON key
// order.
func PayloadHash(req model.RouteRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// GetOrCompute returns a fresh cached result for (callerID, req) or invokes
// compute, stores its result, and returns it. The boolean reports a cache
// hit. Errors from compute pass through unmodified and are never stored.
func (c *Cache) GetOrCompute(ctx context.Context, callerID string, req model.RouteRequest, compute func(context.Context) (model.OptimizedRoute, error)) (model.OptimizedRoute, bool, error) {
	hash, err := PayloadHash(req)
	if err != nil {
		// Unhashable request: fall through to compute.
		c.log.Warn("cache key derivation failed", zap.Error(err))
		route, err := compute(ctx)
		return route, false, err
	}

	if c.store != nil {
		value, age, ok, err := c.store.Get(ctx, callerID, hash)
		if err != nil {
			c.log.Warn("cache lookup failed", zap.Error(err))
			metrics.CacheLookups.WithLabelValues("error").Inc()
		} else if ok && age <= c.ttl {
			var route model.OptimizedRoute
			if uerr := json.Unmarshal(value, &route); uerr == nil {
				metrics.CacheLookups.WithLabelValues("hit").Inc()
				return route, true, nil
			} else {
				c.log.Warn("cache entry undecodable, recomputing", zap.Error(uerr))
			}
		} else {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	route, err := compute(ctx)
	if err != nil {
		return model.OptimizedRoute{}, false, err
	}

	if c.store != nil {
		value, err := json.Marshal(route)
		if err == nil {
			err = c.store.Set(ctx, callerID, hash, value)
		}
		if err != nil {
			c.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return route, false, nil
}
