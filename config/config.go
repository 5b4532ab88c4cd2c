package config

import (
	"fmt"
	"time"

	"main/utils"
)

// Config holds every threshold the lifecycle and ranking engines depend on.
// Each value is independently overridable through its environment variable;
// invalid or missing overrides fall back to the documented default.
type Config struct {
	RecentWindowDays            int     // age ceiling for the Recent tier
	TrendingWindowDays          int     // age ceiling for the Trending tier
	TrendingMinBurst            int     // recent endorsements needed to trend
	TrendingPercentile          float64 // top-N% score cutoff for trending
	ClassicsMinAgeDays          int     // age floor for the Classics tier
	ClassicsMinTotalEndorsement int     // endorsement floor for Classics
	DownvoteHideThreshold       int     // downvotes at which a pin is hidden
	DecayHalfLifeDays           float64 // days for an event's weight to halve
}

// DefaultConfig returns the documented defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		RecentWindowDays:            90,
		TrendingWindowDays:          14,
		TrendingMinBurst:            5,
		TrendingPercentile:          25,
		ClassicsMinAgeDays:          180,
		ClassicsMinTotalEndorsement: 10,
		DownvoteHideThreshold:       10,
		DecayHalfLifeDays:           30,
	}
}

// LoadConfig reads threshold overrides from the environment.
func LoadConfig() Config {
	return Config{
		RecentWindowDays:            utils.GetEnvAsInt("RECENT_WINDOW_DAYS", 90),
		TrendingWindowDays:          utils.GetEnvAsInt("TRENDING_WINDOW_DAYS", 14),
		TrendingMinBurst:            utils.GetEnvAsInt("TRENDING_MIN_BURST", 5),
		TrendingPercentile:          utils.GetEnvAsFloat("TRENDING_PERCENTILE", 25),
		ClassicsMinAgeDays:          utils.GetEnvAsInt("CLASSICS_MIN_AGE_DAYS", 180),
		ClassicsMinTotalEndorsement: utils.GetEnvAsInt("CLASSICS_MIN_TOTAL_ENDORSEMENTS", 10),
		DownvoteHideThreshold:       utils.GetEnvAsInt("DOWNVOTE_HIDE_THRESHOLD", 10),
		DecayHalfLifeDays:           utils.GetEnvAsFloat("DECAY_HALF_LIFE_DAYS", 30),
	}
}

// Validate sanity-checks the configuration itself: every threshold must be
// positive and the windows must be ordered consistently.
func (c Config) Validate() error {
	if c.RecentWindowDays <= 0 {
		return fmt.Errorf("RECENT_WINDOW_DAYS must be positive, got %d", c.RecentWindowDays)
	}
	if c.TrendingWindowDays <= 0 {
		return fmt.Errorf("TRENDING_WINDOW_DAYS must be positive, got %d", c.TrendingWindowDays)
	}
	if c.TrendingMinBurst <= 0 {
		return fmt.Errorf("TRENDING_MIN_BURST must be positive, got %d", c.TrendingMinBurst)
	}
	if c.TrendingPercentile <= 0 || c.TrendingPercentile > 100 {
		return fmt.Errorf("TRENDING_PERCENTILE must be in (0,100], got %v", c.TrendingPercentile)
	}
	if c.ClassicsMinAgeDays <= 0 {
		return fmt.Errorf("CLASSICS_MIN_AGE_DAYS must be positive, got %d", c.ClassicsMinAgeDays)
	}
	if c.ClassicsMinTotalEndorsement <= 0 {
		return fmt.Errorf("CLASSICS_MIN_TOTAL_ENDORSEMENTS must be positive, got %d", c.ClassicsMinTotalEndorsement)
	}
	if c.DownvoteHideThreshold <= 0 {
		return fmt.Errorf("DOWNVOTE_HIDE_THRESHOLD must be positive, got %d", c.DownvoteHideThreshold)
	}
	if c.DecayHalfLifeDays <= 0 {
		return fmt.Errorf("DECAY_HALF_LIFE_DAYS must be positive, got %v", c.DecayHalfLifeDays)
	}
	if c.RecentWindowDays <= c.TrendingWindowDays {
		return fmt.Errorf("RECENT_WINDOW_DAYS (%d) must exceed TRENDING_WINDOW_DAYS (%d)",
			c.RecentWindowDays, c.TrendingWindowDays)
	}
	if c.ClassicsMinAgeDays <= c.RecentWindowDays {
		return fmt.Errorf("CLASSICS_MIN_AGE_DAYS (%d) must exceed RECENT_WINDOW_DAYS (%d)",
			c.ClassicsMinAgeDays, c.RecentWindowDays)
	}
	return nil
}

// StoreConfig selects and parameterizes the persistence backend.
type StoreConfig struct {
	Backend         string // "redis" or "mongo"
	RedisURL        string
	CollectionKey   string // redis key holding the pin collection
	SnapshotKey     string // redis key holding the pre-heal snapshot
	ListingCacheTTL time.Duration
	MongoURI        string
	DatabaseName    string
	MaxPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// LoadStoreConfig reads persistence settings from the environment.
func LoadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:         utils.GetEnvAsString("PIN_STORE_BACKEND", "redis"),
		RedisURL:        utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379/0"),
		CollectionKey:   utils.GetEnvAsString("PIN_COLLECTION_KEY", "pins:collection"),
		SnapshotKey:     utils.GetEnvAsString("PIN_SNAPSHOT_KEY", "pins:collection:backup"),
		ListingCacheTTL: utils.GetEnvAsDuration("RANKING_CACHE_TTL", 30*time.Second),
		MongoURI:        utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:    utils.GetEnvAsString("MONGO_DB", "pins"),
		MaxPoolSize:     uint64(utils.GetEnvAsInt("MONGO_MAX_POOL_SIZE", 100)),
		MaxConnIdleTime: utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second),
	}
}
