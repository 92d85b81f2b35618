package state

import (
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAllocatorStartsAtOne(t *testing.T) {
	alloc := NewAllocator(testDB(t))

	n, err := alloc.Allocate(nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestAllocatorStrictlyIncreasing(t *testing.T) {
	alloc := NewAllocator(testDB(t))

	var prev int64
	for range 50 {
		n, err := alloc.Allocate(nil)
		require.NoError(t, err)
		require.Greater(t, n, prev)
		prev = n
	}
}

func TestAllocatorSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := Open(path)
	require.NoError(t, err)
	n1, err := NewAllocator(db).Allocate(nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	n2, err := NewAllocator(db).Allocate(nil)
	require.NoError(t, err)
	require.Greater(t, n2, n1)
}

func TestAllocatorReconcilesWithLedger(t *testing.T) {
	alloc := NewAllocator(testDB(t))

	t.Run("ledger ahead of local mark", func(t *testing.T) {
		ledgerMax := int64(100)
		n, err := alloc.Allocate(&ledgerMax)
		require.NoError(t, err)
		require.Equal(t, int64(101), n)
	})

	t.Run("ledger behind local mark never regresses", func(t *testing.T) {
		ledgerMax := int64(5)
		n, err := alloc.Allocate(&ledgerMax)
		require.NoError(t, err)
		require.Equal(t, int64(102), n)
	})

	t.Run("ledger equal to local mark advances past it", func(t *testing.T) {
		ledgerMax := int64(102)
		n, err := alloc.Allocate(&ledgerMax)
		require.NoError(t, err)
		require.Equal(t, int64(103), n)
	})

	t.Run("persisted mark reflects the last allocation", func(t *testing.T) {
		mark, err := alloc.HighWaterMark()
		require.NoError(t, err)
		require.Equal(t, int64(103), mark)
	})
}

func TestAllocatorConcurrentCallersNeverCollide(t *testing.T) {
	alloc := NewAllocator(testDB(t))

	const callers = 32
	results := make([]int64, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			n, err := alloc.Allocate(nil)
			if err != nil {
				t.Error(err)
				return
			}
			results[slot] = n
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i := 1; i < callers; i++ {
		require.NotEqual(t, results[i-1], results[i], "duplicate sequence number issued")
	}
}

// Whatever mix of ledger observations arrives, allocations are strictly
// increasing with no repeats.
func TestAllocatorMonotoneProperty(tt *testing.T) {
	rapid.Check(tt, func(t *rapid.T) {
		db, err := Open(filepath.Join(tt.TempDir(), "state.db"))
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		alloc := NewAllocator(db)

		var prev int64
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for range steps {
			var ledgerMax *int64
			if rapid.Bool().Draw(t, "observed") {
				v := rapid.Int64Range(0, 200).Draw(t, "ledgerMax")
				ledgerMax = &v
			}

			n, err := alloc.Allocate(ledgerMax)
			if err != nil {
				t.Fatal(err)
			}
			if n <= prev {
				t.Fatalf("allocation %d not strictly greater than previous %d", n, prev)
			}
			if ledgerMax != nil && n <= *ledgerMax {
				t.Fatalf("allocation %d does not clear observed ledger max %d", n, *ledgerMax)
			}
			prev = n
		}
	})
}
