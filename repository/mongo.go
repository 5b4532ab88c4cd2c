package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"main/config"
	"main/model"
)

const (
	pinCollectionName = "pin_collections"
	primaryDocID      = "primary"
	snapshotDocID     = "backup"
)

// collectionDoc wraps the encoded pin array in a single document, so a
// replace is atomic and the store honors the same all-or-nothing contract
// as the redis backend.
type collectionDoc struct {
	ID        string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoPinStore is the alternate persistence backend.
type MongoPinStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoPinStore(ctx context.Context, cfg config.StoreConfig) (*MongoPinStore, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to reach MongoDB: %v", err)
	}

	return &MongoPinStore{
		client:     client,
		collection: client.Database(cfg.DatabaseName).Collection(pinCollectionName),
	}, nil
}

func (s *MongoPinStore) loadPayload(ctx context.Context, docID string) ([]byte, bool, error) {
	var doc collectionDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": docID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load pin collection: %v", err)
	}
	return []byte(doc.Payload), true, nil
}

func (s *MongoPinStore) savePayload(ctx context.Context, docID string, payload []byte) error {
	doc := collectionDoc{
		ID:        docID,
		Payload:   string(payload),
		UpdatedAt: time.Now(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": docID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save pin collection: %v", err)
	}
	return nil
}

func (s *MongoPinStore) Load(ctx context.Context) ([]*model.Pin, bool, error) {
	payload, found, err := s.loadPayload(ctx, primaryDocID)
	if err != nil || !found {
		return nil, found, err
	}

	var pins []*model.Pin
	if err := json.Unmarshal(payload, &pins); err != nil {
		return nil, true, fmt.Errorf("failed to decode pin collection: %v", err)
	}
	return pins, true, nil
}

func (s *MongoPinStore) LoadRaw(ctx context.Context) ([]json.RawMessage, bool, error) {
	payload, found, err := s.loadPayload(ctx, primaryDocID)
	if err != nil || !found {
		return nil, found, err
	}

	records, err := decodeRaw(payload)
	if err != nil {
		return nil, true, err
	}
	return records, true, nil
}

func (s *MongoPinStore) Save(ctx context.Context, pins []*model.Pin) error {
	data, err := encodeCollection(pins)
	if err != nil {
		return err
	}
	return s.savePayload(ctx, primaryDocID, data)
}

func (s *MongoPinStore) SaveSnapshot(ctx context.Context, records []json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}
	return s.savePayload(ctx, snapshotDocID, data)
}

// Close disconnects the client.
func (s *MongoPinStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
