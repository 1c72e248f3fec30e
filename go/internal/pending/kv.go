package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// KVConfig holds configuration for the JetStream key-value store.
type KVConfig struct {
	Bucket   string
	TTL      time.Duration // How long an abandoned record survives
	Replicas int
}

func DefaultKVConfig() KVConfig {
	return KVConfig{
		Bucket:   "VALLAMKALI_PENDING",
		TTL:      24 * time.Hour,
		Replicas: 1,
	}
}

// KV is a Store backed by a JetStream key-value bucket, one key per
// display.
type KV struct {
	kv  jetstream.KeyValue
	key string
}

// NewKV creates or updates the bucket and binds the store to displayID.
func NewKV(ctx context.Context, nc *nats.Conn, config KVConfig, displayID string) (*KV, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: "Player data of races in progress",
		TTL:         config.TTL,
		Replicas:    config.Replicas,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("create key-value bucket %s: %w", config.Bucket, err)
	}

	log.Info().
		Str("bucket", config.Bucket).
		Str("display_id", displayID).
		Msg("pending player store ready")

	return &KV{kv: kv, key: "display." + displayID}, nil
}

func (s *KV) Save(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal pending record: %w", err)
	}
	if _, err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("put pending record: %w", err)
	}
	return nil
}

func (s *KV) Load(ctx context.Context) (Record, bool, error) {
	entry, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get pending record: %w", err)
	}

	var r Record
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return Record{}, false, fmt.Errorf("unmarshal pending record: %w", err)
	}
	return r, true, nil
}

func (s *KV) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete pending record: %w", err)
	}
	return nil
}
