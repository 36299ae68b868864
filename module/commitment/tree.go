// Package commitment builds the Merkle commitment over a round's frozen entry
// sequence and generates/verifies inclusion proofs against it.
//
// The tree shape is fixed by the protocol: leaf i is the SHA3-256 digest of
// the big-endian entry id at position i, interior nodes hash the
// concatenation of their children, and a level with an odd node count pairs
// the last node with itself. The duplicate-leaf tie-break must be preserved
// exactly for cross-implementation root compatibility.
//
// Leaves commit to the round-scoped entry ids only, so two rounds with equal
// entry counts share a root; a proof binds an entry to a population shape,
// and the verifier supplies the root of the specific round. Mixing the round
// id into the leaf would change every root and may only ever happen as an
// explicitly versioned protocol change, like the selector's modulo bias.
package commitment

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/drawlab/fairdraw/model/draw"
)

// HashLen is the byte length of every leaf, node and root digest.
const HashLen = 32

// BuildCommitment computes the root digest over the given frozen entry
// sequence. It is a pure function: the same sequence in the same order always
// yields the same root. The caller is responsible for freezing the sequence
// beforehand and persisting the result.
//
// Expected errors:
//   - draw.ErrNoEntries if the sequence is empty
func BuildCommitment(entries []draw.EntryID) (draw.Root, error) {
	if len(entries) == 0 {
		return draw.Root{}, draw.ErrNoEntries
	}

	level := leafHashes(entries)
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return draw.Root(level[0]), nil
}

func leafHashes(entries []draw.EntryID) [][HashLen]byte {
	level := make([][HashLen]byte, len(entries))
	for i, id := range entries {
		level[i] = leafHash(id)
	}
	return level
}

// nextLevel folds one tree level into its parent level, pairing the last node
// with itself when the level has an odd node count.
func nextLevel(level [][HashLen]byte) [][HashLen]byte {
	next := make([][HashLen]byte, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		right := level[i]
		if i+1 < len(level) {
			right = level[i+1]
		}
		next = append(next, nodeHash(level[i], right))
	}
	return next
}

func leafHash(id draw.EntryID) [HashLen]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return sha3.Sum256(buf[:])
}

func nodeHash(left, right [HashLen]byte) [HashLen]byte {
	h := sha3.New256()
	h.Write(left[:])
	h.Write(right[:])
	var out [HashLen]byte
	copy(out[:], h.Sum(nil))
	return out
}
