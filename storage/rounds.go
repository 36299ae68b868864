// Package storage declares the persistence interfaces of the fair-draw
// module. The badger subpackage provides the production implementation.
package storage

import "github.com/drawlab/fairdraw/model/draw"

// Rounds persists draw round records. Each round owns its record exclusively;
// no mutable state is shared between rounds.
type Rounds interface {
	// Store inserts a new round record.
	// Returns storage.ErrAlreadyExists if the round id is taken.
	Store(round *draw.Round) error

	// Update overwrites an existing round record.
	// Returns storage.ErrNotFound if the round does not exist.
	Update(round *draw.Round) error

	// ByID retrieves the round with the given id.
	// Returns storage.ErrNotFound if the round does not exist.
	ByID(roundID draw.RoundID) (*draw.Round, error)

	// LatestID returns the highest stored round id.
	// Returns storage.ErrNotFound if no round has been stored yet.
	LatestID() (draw.RoundID, error)
}

// Entries persists the append-only entry arena. Entries are keyed by their
// round and insertion index, which doubles as the canonical Merkle leaf
// ordering.
type Entries interface {
	// Store appends a new entry record and writes the round record carrying
	// the grown entry count in the same transaction, so the arena and the
	// round record cannot diverge on a partial failure.
	// Returns storage.ErrAlreadyExists if the (round, index) slot is taken.
	// Returns storage.ErrNotFound if the round record does not exist.
	Store(round *draw.Round, entry *draw.Entry) error

	// ByRound returns all entries of a round in insertion order.
	ByRound(roundID draw.RoundID) ([]*draw.Entry, error)
}
