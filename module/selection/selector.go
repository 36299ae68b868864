// Package selection computes a round's winners from its frozen entry
// sequence and the fulfilled random seed.
//
// # Determinism
//
// SelectWinners is deterministic with respect to all of its inputs. Given the
// same entry sequence (including order), the same seed and the same k, it
// produces a bit-for-bit identical winner sequence across implementations.
// This is required for independent verifiability of a published outcome, not
// merely a convenience.
//
// # Known bias
//
// The per-step index is derived as value % (i+1) over a fixed-width 64-bit
// sample of the hash stream. Whenever (i+1) does not evenly divide 2^64 this
// introduces a small modulo bias. The bias is part of the protocol
// definition; correcting it (e.g. with rejection sampling) would change the
// observable winner sequence and must only ever happen as an explicitly
// versioned protocol change.
package selection

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/drawlab/fairdraw/model/draw"
)

// SelectWinners runs a seeded partial Fisher-Yates shuffle over a copy of
// entries and returns the first k winners in selection order. The input slice
// is never mutated. k == 0 yields an empty result; k == len(entries) yields
// every entry in fully shuffled order.
//
// Expected errors:
//   - draw.ErrInvalidWinnerCount if k is negative or exceeds len(entries)
func SelectWinners(entries []draw.EntryID, seed draw.Seed, k int) ([]draw.EntryID, error) {
	if k < 0 || k > len(entries) {
		return nil, draw.ErrInvalidWinnerCount
	}

	pool := make([]draw.EntryID, len(entries))
	copy(pool, entries)

	winners := make([]draw.EntryID, 0, k)
	for i := len(pool) - 1; i >= len(pool)-k; i-- {
		j := stepSample(seed, uint64(i)) % uint64(i+1)
		pool[i], pool[j] = pool[j], pool[i]
		winners = append(winners, pool[i])
	}

	return winners, nil
}

// stepSample derives the pseudo-random sample for shuffle step i by
// re-hashing the seed with the big-endian step index, expanding the single
// external random value into a per-step stream. The low 8 bytes of the digest
// are read little-endian.
func stepSample(seed draw.Seed, i uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], i)

	h := sha3.New256()
	h.Write(seed[:])
	h.Write(buf[:])
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}
