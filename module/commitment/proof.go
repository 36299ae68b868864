package commitment

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/drawlab/fairdraw/model/draw"
)

// Proof captures all data needed for an inclusion proof of a single entry
// under a round's committed root. Proofs are stateless: they can always be
// regenerated from the frozen entry sequence, so persisting them is an
// optimization rather than a requirement.
type Proof struct {
	// Siblings holds the sibling digest at every tree level, leaf level
	// first. When the local subtree had an odd node count the sibling is
	// the node's own digest (duplicate-leaf padding).
	Siblings [][]byte
	// Path holds the positional bit per level: true means the proven node
	// is the right child at that level.
	Path []bool
}

// GenerateProof walks the same tree construction as BuildCommitment over the
// frozen entry sequence, recording the sibling digest and positional bit at
// each level for the leaf at the given index.
//
// Expected errors:
//   - draw.ErrNoEntries if the sequence is empty
func GenerateProof(entries []draw.EntryID, index int) (*Proof, error) {
	if len(entries) == 0 {
		return nil, draw.ErrNoEntries
	}
	if index < 0 || index >= len(entries) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", index, len(entries))
	}

	steps := proofLen(len(entries))
	proof := &Proof{
		Siblings: make([][]byte, 0, steps),
		Path:     make([]bool, 0, steps),
	}

	level := leafHashes(entries)
	idx := index
	for len(level) > 1 {
		sibling := level[idx]
		if sibIdx := idx ^ 1; sibIdx < len(level) {
			sibling = level[sibIdx]
		}
		proof.Siblings = append(proof.Siblings, append([]byte(nil), sibling[:]...))
		proof.Path = append(proof.Path, idx%2 == 1)

		level = nextLevel(level)
		idx /= 2
	}

	return proof, nil
}

// Verify recomputes the root by hashing the leaf for entryID against the
// sibling path, branching left/right per the positional bit at each level,
// and compares the result against the declared root.
//
// It returns true iff the entry at index was present in the exact sequence
// that produced root. Any tampering with the proof, a wrong index or a wrong
// root yields false.
//
// Expected errors:
//   - InvalidProofLengthError if the proof length does not equal
//     ceil(log2(totalLeaves)); checked before any hashing so a truncated
//     proof can never be ambiguously accepted
//   - MalformedProofError if a sibling digest has the wrong size
func (p *Proof) Verify(root draw.Root, entryID draw.EntryID, index int, totalLeaves int) (bool, error) {
	if totalLeaves <= 0 {
		return false, NewMalformedProofErrorf("total leaves must be positive, got %d", totalLeaves)
	}

	steps := proofLen(totalLeaves)
	if len(p.Siblings) != steps || len(p.Path) != steps {
		return false, InvalidProofLengthError{Got: len(p.Siblings), Want: steps}
	}

	if index < 0 || index >= totalLeaves {
		return false, nil
	}

	current := leafHash(entryID)
	idx := index
	for level := 0; level < steps; level++ {
		if len(p.Siblings[level]) != HashLen {
			return false, NewMalformedProofErrorf("sibling at level %d has size %d, expected %d",
				level, len(p.Siblings[level]), HashLen)
		}

		// the positional bit must agree with the claimed leaf index
		isRight := idx%2 == 1
		if p.Path[level] != isRight {
			return false, nil
		}

		var sibling [HashLen]byte
		copy(sibling[:], p.Siblings[level])
		if isRight {
			current = nodeHash(sibling, current)
		} else {
			current = nodeHash(current, sibling)
		}
		idx /= 2
	}

	return bytes.Equal(current[:], root[:]), nil
}

// proofLen returns the number of proof steps for a tree over n leaves,
// which is ceil(log2(n)). A single leaf needs no siblings: its digest is the
// root.
func proofLen(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
