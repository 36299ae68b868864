package unittest

import (
	crand "crypto/rand"
	"fmt"

	"go.uber.org/atomic"

	"github.com/drawlab/fairdraw/model/draw"
)

var ownerCounter = atomic.NewUint64(0)

// EntryIDsFixture returns n sequential entry ids starting at 1, matching the
// allocation scheme of the lottery engine.
func EntryIDsFixture(n int) []draw.EntryID {
	entryIDs := make([]draw.EntryID, n)
	for i := 0; i < n; i++ {
		entryIDs[i] = draw.EntryID(i + 1)
	}
	return entryIDs
}

// EntriesFixture returns n entries with generated owners in insertion order.
func EntriesFixture(n int) []*draw.Entry {
	entries := make([]*draw.Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = &draw.Entry{
			ID:    draw.EntryID(i + 1),
			Owner: OwnerFixture(),
			Index: uint32(i),
		}
	}
	return entries
}

// SeedFixture returns a random 32-byte seed.
func SeedFixture() draw.Seed {
	var seed draw.Seed
	_, _ = crand.Read(seed[:])
	return seed
}

// OwnerFixture returns a unique owner identity.
func OwnerFixture() string {
	return fmt.Sprintf("owner-%d", ownerCounter.Add(1))
}

// RoundFixture returns an open round with the given id.
func RoundFixture(roundID draw.RoundID) *draw.Round {
	return &draw.Round{
		ID:          roundID,
		State:       draw.RoundStateOpen,
		WinnerCount: 1,
	}
}
