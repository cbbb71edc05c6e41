// Package cache provides a Redis-backed cache for purchasability verdicts.
//
// Verdicts are pure functions of a ledger's committed history, so a cached
// entry keyed by (asset id, handover count) never goes stale: appending a
// handover changes the count and therefore the key.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"custodia/internal/purchasability"
	"custodia/pkg/domain"
)

const keyPrefix = "purch:verdict:"

// Verdicts caches evaluation results in Redis. A nil *Verdicts is a valid
// disabled cache: Get always misses and Set is a no-op.
type Verdicts struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures a Verdicts cache.
type Option func(*Verdicts)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(v *Verdicts) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// New constructs a verdict cache on the given Redis client.
func New(client *redis.Client, opts ...Option) *Verdicts {
	v := &Verdicts{client: client, ttl: time.Hour}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Get returns the cached verdict for the asset at the given handover count.
// The second return value reports a hit; infrastructure failures are
// returned so callers can decide whether to fall through.
func (v *Verdicts) Get(ctx context.Context, assetID domain.AssetID, handoverCount int) (purchasability.Verdict, bool, error) {
	if v == nil || v.client == nil {
		return purchasability.Verdict{}, false, nil
	}
	raw, err := v.client.Get(ctx, cacheKey(assetID, handoverCount)).Result()
	if errors.Is(err, redis.Nil) {
		return purchasability.Verdict{}, false, nil
	}
	if err != nil {
		return purchasability.Verdict{}, false, fmt.Errorf("verdict cache get: %w", err)
	}
	verdict, err := decode(raw)
	if err != nil {
		return purchasability.Verdict{}, false, err
	}
	return verdict, true, nil
}

// Set stores a verdict with the configured TTL.
func (v *Verdicts) Set(ctx context.Context, assetID domain.AssetID, handoverCount int, verdict purchasability.Verdict) error {
	if v == nil || v.client == nil {
		return nil
	}
	if err := v.client.Set(ctx, cacheKey(assetID, handoverCount), encode(verdict), v.ttl).Err(); err != nil {
		return fmt.Errorf("verdict cache set: %w", err)
	}
	return nil
}

func cacheKey(assetID domain.AssetID, handoverCount int) string {
	return keyPrefix + assetID.Hex() + ":" + strconv.Itoa(handoverCount)
}

func encode(v purchasability.Verdict) string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ",")
}

func decode(raw string) (purchasability.Verdict, error) {
	parts := strings.Split(raw, ",")
	var v purchasability.Verdict
	if len(parts) != len(v) {
		return v, fmt.Errorf("verdict cache: malformed entry %q", raw)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return v, fmt.Errorf("verdict cache: malformed entry %q", raw)
		}
		v[i] = purchasability.Code(n)
	}
	return v, nil
}
