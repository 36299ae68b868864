// Package badger implements the storage interfaces on top of a badger
// key-value store. Round records and the entry arena are kept under separate
// key prefixes; values are msgpack-encoded and snappy-compressed.
package badger

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/storage"
	"github.com/drawlab/fairdraw/storage/badger/operation"
)

type Rounds struct {
	db *badger.DB
}

var _ storage.Rounds = (*Rounds)(nil)

func NewRounds(db *badger.DB) *Rounds {
	return &Rounds{db: db}
}

func (r *Rounds) Store(round *draw.Round) error {
	return r.db.Update(operation.InsertRound(round))
}

func (r *Rounds) Update(round *draw.Round) error {
	return r.db.Update(operation.UpdateRound(round))
}

func (r *Rounds) ByID(roundID draw.RoundID) (*draw.Round, error) {
	var round draw.Round
	err := r.db.View(operation.RetrieveRound(roundID, &round))
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *Rounds) LatestID() (draw.RoundID, error) {
	var roundID draw.RoundID
	err := r.db.View(operation.LookupLatestRound(&roundID))
	if err != nil {
		return 0, err
	}
	return roundID, nil
}
