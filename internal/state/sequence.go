package state

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

var highWaterKey = []byte("high_water_mark")

// Allocator issues receipt sequence numbers from a persisted high-water
// mark. Numbers may leave gaps (a cancelled receipt keeps its number) but
// never repeat and never go backward, even across restarts. The bbolt
// write transaction serializes concurrent Allocate calls.
type Allocator struct {
	db *bbolt.DB
}

// NewAllocator creates an Allocator over the state database.
func NewAllocator(d *DB) *Allocator {
	return &Allocator{db: d.db}
}

// Allocate returns the next sequence number. When the ledger's observed
// maximum is known and has caught up with (or passed) the local mark, the
// allocation continues from the ledger instead; the winner is persisted
// before the number is handed out.
func (a *Allocator) Allocate(ledgerMax *int64) (int64, error) {
	var next int64
	err := a.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sequenceBucket)

		var mark int64
		if data := bucket.Get(highWaterKey); data != nil {
			mark = int64(binary.BigEndian.Uint64(data))
		}

		if ledgerMax != nil && *ledgerMax >= mark {
			next = *ledgerMax + 1
		} else {
			next = mark + 1
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(next))
		return bucket.Put(highWaterKey, buf)
	})
	if err != nil {
		return 0, fmt.Errorf("allocating sequence number: %w", err)
	}
	return next, nil
}

// HighWaterMark reads the current persisted mark without advancing it.
func (a *Allocator) HighWaterMark() (int64, error) {
	var mark int64
	err := a.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(sequenceBucket).Get(highWaterKey); data != nil {
			mark = int64(binary.BigEndian.Uint64(data))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reading high-water mark: %w", err)
	}
	return mark, nil
}
