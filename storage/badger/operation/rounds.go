package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/drawlab/fairdraw/model/draw"
)

func InsertRound(round *draw.Round) func(*badger.Txn) error {
	return insert(makePrefix(codeRound, uint64(round.ID)), round)
}

func UpdateRound(round *draw.Round) func(*badger.Txn) error {
	return update(makePrefix(codeRound, uint64(round.ID)), round)
}

func RetrieveRound(roundID draw.RoundID, round *draw.Round) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRound, uint64(roundID)), round)
}

// LookupLatestRound finds the highest stored round id.
func LookupLatestRound(roundID *draw.RoundID) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var key []byte
		err := findHighestKey(makePrefix(codeRound), &key)(tx)
		if err != nil {
			return err
		}
		if len(key) != 1+8 {
			return fmt.Errorf("round key has unexpected length %d", len(key))
		}
		*roundID = draw.RoundID(binary.BigEndian.Uint64(key[1:]))
		return nil
	}
}

func InsertEntry(roundID draw.RoundID, entry *draw.Entry) func(*badger.Txn) error {
	return insert(makePrefix(codeEntry, uint64(roundID), uint64(entry.Index)), entry)
}

// IterateEntries visits a round's entries in insertion order.
func IterateEntries(roundID draw.RoundID, handle func(entry *draw.Entry) error) func(*badger.Txn) error {
	create := func() interface{} {
		return &draw.Entry{}
	}
	wrap := func(entity interface{}) error {
		return handle(entity.(*draw.Entry))
	}
	return iterate(makePrefix(codeEntry, uint64(roundID)), create, wrap)
}
