package facade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/redis/go-redis/v9"
)

// Cache is the façade's Redis-backed memoization layer (spec §9:
// "Global mutable state... façade owns caches"). Keys are namespaced the
// way internal/orbit/api/storage.go namespaces its keys; key helpers
// exist for three namespaces (schedule, pattern, csp), but only schedule
// results are read and written, keyed by the snapshot fingerprint rather
// than by user+window so an unrelated mutation invalidates nothing it
// didn't touch.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a redis client with the façade's namespacing and TTL
// policy. ttl <= 0 disables expiry (entries live until evicted or
// explicitly invalidated).
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func scheduleResultKey(fingerprint string) string { return "reflow:schedule:" + fingerprint }
func patternExpansionKey(seriesID, fingerprint string) string {
	return fmt.Sprintf("reflow:pattern:%s:%s", seriesID, fingerprint)
}
func cspFingerprintKey(fingerprint string) string { return "reflow:csp:" + fingerprint }

// GetScheduleResult returns a previously cached ReflowOutput for this
// exact snapshot fingerprint, if present.
func (c *Cache) GetScheduleResult(ctx context.Context, fingerprint string) (*reflow.ReflowOutput, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, scheduleResultKey(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out reflow.ReflowOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

// PutScheduleResult stores a reflow pass's result keyed by its snapshot
// fingerprint.
func (c *Cache) PutScheduleResult(ctx context.Context, fingerprint string, out reflow.ReflowOutput) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scheduleResultKey(fingerprint), raw, c.ttl).Err()
}

// InvalidateSeries drops the series' pattern-expansion entries
// (reflow:pattern:<seriesID>:*), called after any mutation to that
// series (spec §9's cache-owner contract: the façade, not the core, is
// responsible for invalidation). Schedule-result entries are keyed by
// fingerprint alone and are not touched here.
func (c *Cache) InvalidateSeries(ctx context.Context, seriesID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	pattern := fmt.Sprintf("reflow:pattern:%s:*", seriesID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Flush drops every cached schedule result, used when a relational
// constraint or tag index changes in a way that could affect any series.
func (c *Cache) Flush(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, "reflow:schedule:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
