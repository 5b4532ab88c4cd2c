package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"main/config"
	"main/model"
)

// RedisPinStore keeps the whole collection as one JSON array under a named
// key, with the healing snapshot under a sibling backup key.
type RedisPinStore struct {
	client        *redis.Client
	collectionKey string
	snapshotKey   string
}

func NewRedisPinStore(ctx context.Context, cfg config.StoreConfig) (*RedisPinStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RedisPinStore{
		client:        client,
		collectionKey: cfg.CollectionKey,
		snapshotKey:   cfg.SnapshotKey,
	}, nil
}

func (s *RedisPinStore) Load(ctx context.Context) ([]*model.Pin, bool, error) {
	data, err := s.client.Get(ctx, s.collectionKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load pin collection: %v", err)
	}

	var pins []*model.Pin
	if err := json.Unmarshal(data, &pins); err != nil {
		return nil, true, fmt.Errorf("failed to decode pin collection: %v", err)
	}
	return pins, true, nil
}

func (s *RedisPinStore) LoadRaw(ctx context.Context) ([]json.RawMessage, bool, error) {
	data, err := s.client.Get(ctx, s.collectionKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load pin collection: %v", err)
	}

	records, err := decodeRaw(data)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}

func (s *RedisPinStore) Save(ctx context.Context, pins []*model.Pin) error {
	data, err := encodeCollection(pins)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.collectionKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save pin collection: %v", err)
	}
	return nil
}

func (s *RedisPinStore) SaveSnapshot(ctx context.Context, records []json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}
	if err := s.client.Set(ctx, s.snapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %v", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisPinStore) Close() error {
	return s.client.Close()
}
