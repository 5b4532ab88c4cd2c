package repository

import (
	"context"
	"encoding/json"
	"errors"

	"main/model"
)

// MemoryPinStore holds the encoded collection in memory. It backs tests
// and local development where no redis or mongo is available.
type MemoryPinStore struct {
	payload  []byte
	snapshot []byte
	// FailSaves makes every write fail, for exercising the caller's
	// keep-last-known-good path.
	FailSaves bool
}

func NewMemoryPinStore() *MemoryPinStore {
	return &MemoryPinStore{}
}

// Seed installs a raw payload, bypassing encoding, so tests can start from
// corrupt state.
func (s *MemoryPinStore) Seed(payload []byte) {
	s.payload = payload
}

// Snapshot exposes the last snapshot payload for assertions.
func (s *MemoryPinStore) Snapshot() []byte {
	return s.snapshot
}

func (s *MemoryPinStore) Load(ctx context.Context) ([]*model.Pin, bool, error) {
	if s.payload == nil {
		return nil, false, nil
	}
	var pins []*model.Pin
	if err := json.Unmarshal(s.payload, &pins); err != nil {
		return nil, true, errors.New("failed to decode pin collection")
	}
	return pins, true, nil
}

func (s *MemoryPinStore) LoadRaw(ctx context.Context) ([]json.RawMessage, bool, error) {
	if s.payload == nil {
		return nil, false, nil
	}
	records, err := decodeRaw(s.payload)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}

func (s *MemoryPinStore) Save(ctx context.Context, pins []*model.Pin) error {
	if s.FailSaves {
		return errors.New("save failed")
	}
	data, err := encodeCollection(pins)
	if err != nil {
		return err
	}
	s.payload = data
	return nil
}

func (s *MemoryPinStore) SaveSnapshot(ctx context.Context, records []json.RawMessage) error {
	if s.FailSaves {
		return errors.New("snapshot save failed")
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	s.snapshot = data
	return nil
}
