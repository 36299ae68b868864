package badger

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/storage"
	"github.com/drawlab/fairdraw/storage/badger/operation"
)

type Entries struct {
	db *badger.DB
}

var _ storage.Entries = (*Entries)(nil)

func NewEntries(db *badger.DB) *Entries {
	return &Entries{db: db}
}

// Store appends the entry and overwrites the round record in one
// transaction; either both writes land or neither does.
func (e *Entries) Store(round *draw.Round, entry *draw.Entry) error {
	return e.db.Update(func(tx *badger.Txn) error {
		err := operation.InsertEntry(round.ID, entry)(tx)
		if err != nil {
			return err
		}
		return operation.UpdateRound(round)(tx)
	})
}

func (e *Entries) ByRound(roundID draw.RoundID) ([]*draw.Entry, error) {
	var entries []*draw.Entry
	err := e.db.View(operation.IterateEntries(roundID, func(entry *draw.Entry) error {
		entries = append(entries, entry)
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return entries, nil
}
