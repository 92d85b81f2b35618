package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
	"go.etcd.io/bbolt"
)

// ErrNoPendingReceipt is returned by Merge when the sender has nothing
// in flight.
var ErrNoPendingReceipt = errors.New("no pending receipt for sender")

// PendingStore keeps at most one in-flight receipt per sender. Each
// operation runs inside a single bbolt transaction, so a sender's
// read-modify-write is atomic.
type PendingStore struct {
	db *bbolt.DB
}

// NewPendingStore creates a PendingStore over the state database.
func NewPendingStore(d *DB) *PendingStore {
	return &PendingStore{db: d.db}
}

// Get returns the sender's pending receipt, or nil when none exists.
func (s *PendingStore) Get(senderID string) (*models.PendingReceipt, error) {
	var receipt *models.PendingReceipt
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(pendingBucket).Get([]byte(senderID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, fmt.Errorf("loading pending receipt: %w", err)
	}
	return receipt, nil
}

// Put stores the receipt, replacing any previous one for the same sender.
func (s *PendingStore) Put(receipt *models.PendingReceipt) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling pending receipt: %w", err)
		}
		return tx.Bucket(pendingBucket).Put([]byte(receipt.SenderID), data)
	})
}

// Merge applies field updates to the sender's pending receipt and saves
// the result in the same transaction. It fails with ErrNoPendingReceipt
// when there is nothing to merge into; a failed merge changes nothing.
func (s *PendingStore) Merge(senderID string, updates map[string]string) (*models.PendingReceipt, error) {
	var receipt *models.PendingReceipt
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(pendingBucket)
		data := bucket.Get([]byte(senderID))
		if data == nil {
			return ErrNoPendingReceipt
		}
		if err := json.Unmarshal(data, &receipt); err != nil {
			return fmt.Errorf("unmarshaling pending receipt: %w", err)
		}

		receipt.SetFields(updates)

		merged, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("marshaling merged receipt: %w", err)
		}
		return bucket.Put([]byte(senderID), merged)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Delete removes the sender's pending receipt, if any.
func (s *PendingStore) Delete(senderID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(pendingBucket).Delete([]byte(senderID))
	})
}
