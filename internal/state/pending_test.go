package state

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/idrea/receipt-ledger-bot/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestPendingStoreGetMissing(t *testing.T) {
	store := NewPendingStore(testDB(t))

	receipt, err := store.Get("nobody")
	require.NoError(t, err)
	require.Nil(t, receipt)
}

func TestPendingStorePutGetDelete(t *testing.T) {
	store := NewPendingStore(testDB(t))

	receipt := models.NewPendingReceipt("+34666111222", "Drea")
	receipt.SetField(models.FieldWhat, "Lunch")
	receipt.SequenceNumber = 42
	receipt.AttachmentRef = "receipt-42.jpg"

	require.NoError(t, store.Put(receipt))

	got, err := store.Get("+34666111222")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Lunch", got.Field(models.FieldWhat))
	require.Equal(t, int64(42), got.SequenceNumber)
	require.Equal(t, "receipt-42.jpg", got.AttachmentRef)

	require.NoError(t, store.Delete("+34666111222"))

	got, err = store.Get("+34666111222")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPendingStorePutReplaces(t *testing.T) {
	store := NewPendingStore(testDB(t))

	first := models.NewPendingReceipt("s1", "Drea")
	first.SetField(models.FieldWhat, "Lunch")
	require.NoError(t, store.Put(first))

	second := models.NewPendingReceipt("s1", "Drea")
	second.SetField(models.FieldWhat, "Dinner")
	require.NoError(t, store.Put(second))

	got, err := store.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "Dinner", got.Field(models.FieldWhat))
}

func TestPendingStoreMerge(t *testing.T) {
	store := NewPendingStore(testDB(t))

	receipt := models.NewPendingReceipt("s1", "Drea")
	receipt.SetFields(map[string]string{
		models.FieldWhat:        "Lunch",
		models.FieldTotalAmount: "12.00",
	})
	require.NoError(t, store.Put(receipt))

	merged, err := store.Merge("s1", map[string]string{
		models.FieldTotalAmount: "15.00",
		models.FieldStoreName:   "Bar X",
	})
	require.NoError(t, err)

	// Overlapping key: second write wins. Non-overlapping: first survives.
	require.Equal(t, "15.00", merged.Field(models.FieldTotalAmount))
	require.Equal(t, "Lunch", merged.Field(models.FieldWhat))
	require.Equal(t, "Bar X", merged.Field(models.FieldStoreName))

	got, err := store.Get("s1")
	require.NoError(t, err)
	require.Equal(t, merged.Fields, got.Fields)
}

func TestPendingStoreMergeDropsNonCanonicalKeys(t *testing.T) {
	store := NewPendingStore(testDB(t))

	require.NoError(t, store.Put(models.NewPendingReceipt("s1", "Drea")))

	merged, err := store.Merge("s1", map[string]string{
		models.FieldWhat: "Stamps",
		"project_code":   "ATLAS-7",
	})
	require.NoError(t, err)
	require.Equal(t, "Stamps", merged.Field(models.FieldWhat))
	require.NotContains(t, merged.Fields, "project_code")
}

func TestPendingStoreMergeWithoutReceiptFailsLoudly(t *testing.T) {
	store := NewPendingStore(testDB(t))

	_, err := store.Merge("ghost", map[string]string{models.FieldWhat: "x"})
	require.ErrorIs(t, err, ErrNoPendingReceipt)
}

func TestPendingStoreIsolatesSenders(t *testing.T) {
	store := NewPendingStore(testDB(t))

	a := models.NewPendingReceipt("sender-a", "A")
	a.SetField(models.FieldWhat, "Lunch A")
	b := models.NewPendingReceipt("sender-b", "B")
	b.SetField(models.FieldWhat, "Lunch B")

	require.NoError(t, store.Put(a))
	require.NoError(t, store.Put(b))
	require.NoError(t, store.Delete("sender-a"))

	got, err := store.Get("sender-b")
	require.NoError(t, err)
	require.Equal(t, "Lunch B", got.Field(models.FieldWhat))
}

func TestPendingStoreConcurrentSenders(t *testing.T) {
	store := NewPendingStore(testDB(t))

	const senders = 16
	var wg sync.WaitGroup
	for i := range senders {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			r := models.NewPendingReceipt(id, "Sender "+id)
			if err := store.Put(r); err != nil {
				t.Error(err)
				return
			}
			if _, err := store.Merge(id, map[string]string{models.FieldWhat: "item " + id}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	for i := range senders {
		id := string(rune('a' + i))
		got, err := store.Get(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, "item "+id, got.Field(models.FieldWhat))
	}
}
