package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"go.uber.org/zap"
)

const itemsTable = "items"

type item struct {
	Key    string
	Value  string
	Expiry int64 // unix nanos, 0 never expires
}

// MemoryStore is an in-process Store backed by go-memdb
type MemoryStore struct {
	db  *memdb.MemDB
	ttl time.Duration
	now func() time.Time
	log *zap.Logger
}

// NewMemoryStore creates a store whose items expire after ttl (0 disables expiry)
func NewMemoryStore(ttl time.Duration, log *zap.Logger) (*MemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			itemsTable: {
				Name: itemsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
					"expiry": {
						Name:    "expiry",
						Unique:  false,
						Indexer: &memdb.IntFieldIndex{Field: "Expiry"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create session db: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStore{db: db, ttl: ttl, now: time.Now, log: log}, nil
}

// GetItem returns the value stored under key
func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(itemsTable, "id", key)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", ErrItemNotFound
	}
	it := raw.(*item)
	if it.Expiry != 0 && it.Expiry <= s.now().UnixNano() {
		return "", ErrItemNotFound
	}
	return it.Value, nil
}

// SetItem stores value under key, replacing any previous value
func (s *MemoryStore) SetItem(ctx context.Context, key, value string) error {
	it := &item{Key: key, Value: value}
	if s.ttl > 0 {
		it.Expiry = s.now().Add(s.ttl).UnixNano()
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(itemsTable, it); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// RemoveItem deletes key; missing keys are not an error
func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(itemsTable, "id", key); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// DeleteExpired removes every expired item and returns how many were dropped
func (s *MemoryStore) DeleteExpired() (int, error) {
	now := s.now().UnixNano()

	txn := s.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(itemsTable, "expiry")
	if err != nil {
		return 0, err
	}

	var expired []*item
	for obj := it.Next(); obj != nil; obj = it.Next() {
		entry := obj.(*item)
		if entry.Expiry != 0 && entry.Expiry <= now {
			expired = append(expired, entry)
		}
	}

	for _, entry := range expired {
		if err := txn.Delete(itemsTable, entry); err != nil {
			return 0, err
		}
	}
	txn.Commit()
	return len(expired), nil
}

// StartCleanup sweeps expired items every interval until ctx is done
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired()
			if err != nil {
				s.log.Error("Session cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("Deleted expired session items", zap.Int("count", n))
			}
		}
	}
}
