package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/storage"
	"github.com/drawlab/fairdraw/utils/unittest"
)

func TestRoundStoreRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)

		round := &draw.Round{
			ID:          1,
			State:       draw.RoundStateResolved,
			WinnerCount: 2,
			EntryCount:  5,
			Root:        draw.Root{1, 2, 3},
			RequestID:   uuid.New(),
			Seed:        unittest.SeedFixture(),
			Winners:     []draw.EntryID{4, 2},
		}

		err := rounds.Store(round)
		require.NoError(t, err)

		retrieved, err := rounds.ByID(round.ID)
		require.NoError(t, err)
		assert.Equal(t, round, retrieved)
	})
}

func TestRoundStoreDuplicate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)

		round := unittest.RoundFixture(1)
		require.NoError(t, rounds.Store(round))

		err := rounds.Store(round)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
	})
}

func TestRoundUpdate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)

		round := unittest.RoundFixture(1)

		err := rounds.Update(round)
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, rounds.Store(round))

		round.State = draw.RoundStateCommitted
		round.EntryCount = 3
		require.NoError(t, rounds.Update(round))

		retrieved, err := rounds.ByID(round.ID)
		require.NoError(t, err)
		assert.Equal(t, round, retrieved)
	})
}

func TestRoundNotFound(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)

		_, err := rounds.ByID(13)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRoundLatestID(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)

		_, err := rounds.LatestID()
		require.ErrorIs(t, err, storage.ErrNotFound)

		for id := draw.RoundID(1); id <= 3; id++ {
			require.NoError(t, rounds.Store(unittest.RoundFixture(id)))
		}

		latest, err := rounds.LatestID()
		require.NoError(t, err)
		assert.Equal(t, draw.RoundID(3), latest)
	})
}

func TestEntriesStoreIterate(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)
		entries := NewEntries(db)

		round := unittest.RoundFixture(1)
		require.NoError(t, rounds.Store(round))
		other := unittest.RoundFixture(2)
		require.NoError(t, rounds.Store(other))

		fixtures := unittest.EntriesFixture(5)
		for _, entry := range fixtures {
			round.EntryCount++
			require.NoError(t, entries.Store(round, entry))
		}

		// the round record carries the grown count
		retrievedRound, err := rounds.ByID(1)
		require.NoError(t, err)
		assert.Equal(t, uint32(5), retrievedRound.EntryCount)

		// entries of another round must not leak into the scan
		other.EntryCount = 1
		require.NoError(t, entries.Store(other, &draw.Entry{ID: 1, Owner: unittest.OwnerFixture()}))

		retrieved, err := entries.ByRound(1)
		require.NoError(t, err)
		assert.Equal(t, fixtures, retrieved)
	})
}

// the entry insert and the round record update form one transaction: when
// the insert is rejected, the round record must stay untouched
func TestEntriesDuplicateIndexRollsBack(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		rounds := NewRounds(db)
		entries := NewEntries(db)

		round := unittest.RoundFixture(1)
		require.NoError(t, rounds.Store(round))

		entry := &draw.Entry{ID: 1, Owner: unittest.OwnerFixture(), Index: 0}
		round.EntryCount = 1
		require.NoError(t, entries.Store(round, entry))

		round.EntryCount = 2
		err := entries.Store(round, entry)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)

		retrieved, err := rounds.ByID(1)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), retrieved.EntryCount)
	})
}

func TestEntriesStoreUnknownRound(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		entries := NewEntries(db)

		round := unittest.RoundFixture(7)
		round.EntryCount = 1
		err := entries.Store(round, &draw.Entry{ID: 1, Owner: unittest.OwnerFixture()})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestEntriesEmptyRound(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		entries := NewEntries(db)

		retrieved, err := entries.ByRound(9)
		require.NoError(t, err)
		assert.Empty(t, retrieved)
	})
}
