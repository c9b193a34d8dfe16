package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"stock-ledger/internal/metrics"
)

// Keys under which the inventory tables are persisted.
const (
	KeyUsers        = "users"
	KeyProducts     = "products"
	KeyTransactions = "transactions"
)

// Store is a byte-oriented key-value backend. Set overwrites the whole value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// BatchStore is implemented by backends that can write several keys in a
// single transaction.
type BatchStore interface {
	Store
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Entry is one key of a snapshot write.
type Entry struct {
	Key   string
	Value any
}

// Adapter serializes collections to JSON on top of a Store. Store failures
// are logged and counted, never returned: a failed load yields the caller's
// default and a failed save is dropped.
type Adapter struct {
	store  Store
	logger *logrus.Logger
}

func NewAdapter(store Store, logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{store: store, logger: logger}
}

// Load decodes the value stored under key into a T. Missing or undecodable
// data returns def.
func Load[T any](ctx context.Context, a *Adapter, key string, def T) T {
	raw, ok, err := a.store.Get(ctx, key)
	if err != nil {
		a.loadFailed(key, err)
		return def
	}
	if !ok {
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.loadFailed(key, fmt.Errorf("decode: %w", err))
		return def
	}
	return v
}

// Save overwrites key with the JSON encoding of value.
func (a *Adapter) Save(ctx context.Context, key string, value any) {
	a.SaveAll(ctx, Entry{Key: key, Value: value})
}

// SaveAll writes every entry as one snapshot. Nothing is written when any
// entry fails to encode. Backends implementing BatchStore commit all keys
// together; other backends are written key by key in the given order.
func (a *Adapter) SaveAll(ctx context.Context, entries ...Entry) {
	if len(entries) == 0 {
		return
	}

	encoded := make([][]byte, len(entries))
	for i, entry := range entries {
		raw, err := json.Marshal(entry.Value)
		if err != nil {
			a.saveFailed(entry.Key, fmt.Errorf("encode: %w", err))
			return
		}
		encoded[i] = raw
	}

	if batch, ok := a.store.(BatchStore); ok && len(entries) > 1 {
		values := make(map[string][]byte, len(entries))
		for i, entry := range entries {
			values[entry.Key] = encoded[i]
		}
		if err := batch.SetMany(ctx, values); err != nil {
			for _, entry := range entries {
				a.saveFailed(entry.Key, err)
			}
		}
		return
	}

	for i, entry := range entries {
		if err := a.store.Set(ctx, entry.Key, encoded[i]); err != nil {
			a.saveFailed(entry.Key, err)
		}
	}
}

func (a *Adapter) loadFailed(key string, err error) {
	metrics.RecordStoreFailure(key, "load")
	a.logger.WithFields(logrus.Fields{"key": key, "op": "load"}).
		Warnf("stored data unreadable, using empty default: %v", err)
}

func (a *Adapter) saveFailed(key string, err error) {
	metrics.RecordStoreFailure(key, "save")
	a.logger.WithFields(logrus.Fields{"key": key, "op": "save"}).
		Errorf("persist snapshot: %v", err)
}
