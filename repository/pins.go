package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"main/config"
	"main/model"
)

// PinStore is the core's only contract with persistence: load the named
// collection, save it back, and keep a pre-heal snapshot. A save either
// fully succeeds or the caller retains the prior collection; the store
// never issues partial writes.
type PinStore interface {
	// Load strictly decodes the persisted collection. The bool reports
	// whether the key existed at all.
	Load(ctx context.Context) ([]*model.Pin, bool, error)
	// LoadRaw returns the persisted records without decoding them into
	// pins, so healing can inspect damaged entries. Only a blob that is
	// not a JSON array at all produces an error.
	LoadRaw(ctx context.Context) ([]json.RawMessage, bool, error)
	// Save atomically replaces the collection.
	Save(ctx context.Context, pins []*model.Pin) error
	// SaveSnapshot persists the pre-heal records under the backup key.
	// Healing only overwrites the primary collection after this returns.
	SaveSnapshot(ctx context.Context, records []json.RawMessage) error
}

// NewPinStore builds the configured backend.
func NewPinStore(ctx context.Context, cfg config.StoreConfig) (PinStore, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisPinStore(ctx, cfg)
	case "mongo":
		return NewMongoPinStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown pin store backend %q", cfg.Backend)
	}
}

// encodeCollection renders the canonical persisted form: an ordered JSON
// array of pin records.
func encodeCollection(pins []*model.Pin) ([]byte, error) {
	if pins == nil {
		pins = []*model.Pin{}
	}
	data, err := json.Marshal(pins)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pin collection: %v", err)
	}
	return data, nil
}

// decodeRaw splits a persisted blob into its individual records without
// decoding them. A blob that is not an array at all is a top-level failure.
func decodeRaw(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("persisted blob is not a JSON array: %v", err)
	}
	return records, nil
}
