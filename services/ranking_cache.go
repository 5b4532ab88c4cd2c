package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"main/model"
)

// RankingCache caches computed tier listings in redis. It is an explicit,
// caller-owned object: the caller constructs it, injects its configuration
// and decides its lifetime. There is no process-wide instance.
type RankingCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

type listingEntry struct {
	Pins      []*model.Pin `json:"pins"`
	Version   int64        `json:"version"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewRankingCache connects to redis and returns a cache whose listings
// expire after ttl.
func NewRankingCache(redisURL string, ttl time.Duration) (*RankingCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RankingCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: "pins:listing:",
	}, nil
}

func (rc *RankingCache) key(tier string) string {
	return rc.keyPrefix + tier
}

// SetListing caches a tier listing.
func (rc *RankingCache) SetListing(ctx context.Context, tier string, pins []*model.Pin) error {
	entry := listingEntry{
		Pins:      pins,
		Version:   time.Now().UnixNano(),
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal %s listing: %v", tier, err)
	}
	if err := rc.client.Set(ctx, rc.key(tier), data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s listing: %v", tier, err)
	}
	return nil
}

// GetListing returns a cached tier listing. The bool reports a cache hit.
func (rc *RankingCache) GetListing(ctx context.Context, tier string) ([]*model.Pin, bool, error) {
	data, err := rc.client.Get(ctx, rc.key(tier)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s listing from cache: %v", tier, err)
	}

	var entry listingEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal %s listing: %v", tier, err)
	}
	return entry.Pins, true, nil
}

// Invalidate drops every cached listing. Called after any write to the
// collection.
func (rc *RankingCache) Invalidate(ctx context.Context) error {
	keys := []string{
		rc.key("recent"),
		rc.key("trending"),
		rc.key("classics"),
	}
	if err := rc.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate listings: %v", err)
	}
	return nil
}

// IsConnected reports whether the redis connection is alive.
func (rc *RankingCache) IsConnected() bool {
	if rc == nil || rc.client == nil {
		return false
	}
	return rc.client.Ping(context.Background()).Err() == nil
}

// Close closes the Redis connection.
func (rc *RankingCache) Close() error {
	return rc.client.Close()
}
