// Package cache stores search and autocomplete responses in Redis. Keys embed
// a corpus version so any index mutation invalidates every cached response
// at once.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/domain"
	"github.com/Gangoo91/Elec-Mate-Merge-sub265/internal/textmatch"
)

const (
	// DefaultPrefix namespaces every key written by the cache.
	DefaultPrefix = "materials:"

	versionKey = "version"
)

// Redis is a response cache backed by a Redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a response cache. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: DefaultPrefix,
	}
}

// Version returns the current corpus version. A missing key is version 0.
func (c *Redis) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.prefix+versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get corpus version: %w", err)
	}
	return v, nil
}

// BumpVersion advances the corpus version, orphaning every cached response.
// Orphans are left to expire.
func (c *Redis) BumpVersion(ctx context.Context) (int64, error) {
	v, err := c.client.Incr(ctx, c.prefix+versionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr corpus version: %w", err)
	}
	return v, nil
}

// GetSearch returns a cached search response, reporting whether one was found.
func (c *Redis) GetSearch(ctx context.Context, version int64, q *domain.SearchQuery) (*domain.SearchResponse, bool, error) {
	var resp domain.SearchResponse
	ok, err := c.get(ctx, c.searchKey(version, q), &resp)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &resp, true, nil
}

// SetSearch caches a search response.
func (c *Redis) SetSearch(ctx context.Context, version int64, q *domain.SearchQuery, resp *domain.SearchResponse) error {
	return c.set(ctx, c.searchKey(version, q), resp)
}

// GetSuggest returns cached autocomplete suggestions, reporting whether they were found.
func (c *Redis) GetSuggest(ctx context.Context, version int64, partial string, limit int) ([]domain.AutocompleteSuggestion, bool, error) {
	var out []domain.AutocompleteSuggestion
	ok, err := c.get(ctx, c.suggestKey(version, partial, limit), &out)
	if err != nil || !ok {
		return nil, ok, err
	}
	if out == nil {
		out = []domain.AutocompleteSuggestion{}
	}
	return out, true, nil
}

// SetSuggest caches autocomplete suggestions.
func (c *Redis) SetSuggest(ctx context.Context, version int64, partial string, limit int, suggestions []domain.AutocompleteSuggestion) error {
	return c.set(ctx, c.suggestKey(version, partial, limit), suggestions)
}

// Ping checks Redis connectivity.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal cached response: %w", err)
	}
	return true, nil
}

func (c *Redis) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *Redis) searchKey(version int64, q *domain.SearchQuery) string {
	parts := []string{
		textmatch.Normalize(q.Text),
		deref(q.CategoryFilter),
		deref(q.SupplierFilter),
		strconv.Itoa(q.EffectiveLimit()),
	}
	return c.key(version, "search", parts)
}

func (c *Redis) suggestKey(version int64, partial string, limit int) string {
	return c.key(version, "suggest", []string{textmatch.Normalize(partial), strconv.Itoa(limit)})
}

// key hashes the request parts so arbitrary user input never reaches the key space.
func (c *Redis) key(version int64, kind string, parts []string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return c.prefix + "v" + strconv.FormatInt(version, 10) + ":" + kind + ":" + hex.EncodeToString(sum[:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
