// Package state persists per-sender conversation state and the receipt
// sequence high-water mark in an embedded bbolt database.
package state

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	pendingBucket  = []byte("pending_receipts")
	sequenceBucket = []byte("sequence")
)

// DB wraps the bbolt database holding conversation state. bbolt serializes
// write transactions, which gives PendingStore its per-key atomicity and
// Allocator its global mutual exclusion.
type DB struct {
	db *bbolt.DB
}

// Open opens (or creates) the state database at path.
func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(pendingBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(sequenceBucket); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state buckets: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}
