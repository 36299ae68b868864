package commitment

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/utils/unittest"
)

func TestBuildCommitmentDeterministic(t *testing.T) {
	entries := unittest.EntryIDsFixture(12)

	first, err := BuildCommitment(entries)
	require.NoError(t, err)
	second, err := BuildCommitment(entries)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildCommitmentOrderMatters(t *testing.T) {
	forward := []draw.EntryID{1, 2, 3, 4}
	reversed := []draw.EntryID{4, 3, 2, 1}

	rootForward, err := BuildCommitment(forward)
	require.NoError(t, err)
	rootReversed, err := BuildCommitment(reversed)
	require.NoError(t, err)

	assert.NotEqual(t, rootForward, rootReversed)
}

// a single leaf needs no padding and no interior nodes: the root is the leaf
// hash itself
func TestBuildCommitmentSingleLeaf(t *testing.T) {
	root, err := BuildCommitment([]draw.EntryID{7})
	require.NoError(t, err)

	assert.Equal(t, draw.Root(leafHash(7)), root)
}

// 3 entries: level 1 has 2 nodes, the dangling third leaf is paired with
// itself
func TestBuildCommitmentOddDuplicatePadding(t *testing.T) {
	entries := []draw.EntryID{1, 2, 3}

	left := nodeHash(leafHash(1), leafHash(2))
	right := nodeHash(leafHash(3), leafHash(3))
	expected := draw.Root(nodeHash(left, right))

	root, err := BuildCommitment(entries)
	require.NoError(t, err)
	assert.Equal(t, expected, root)
}

// known-answer pins: the root is a protocol constant. Any change to the leaf
// encoding, the node hash or the odd-level padding must show up here,
// computed against an external sha3-256 implementation.
func TestBuildCommitmentGolden(t *testing.T) {
	root, err := BuildCommitment([]draw.EntryID{1})
	require.NoError(t, err)
	assert.Equal(t,
		"6c70d57af53dbf4d95253503dd5abe8c49e953236fd23851108b92bbec8ac907",
		hex.EncodeToString(root[:]))

	root, err = BuildCommitment([]draw.EntryID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t,
		"a2b9f1c6b006a9de11c0acac2f7a13522e01738b8788c0c668e38c34e47bef56",
		hex.EncodeToString(root[:]))

	root, err = BuildCommitment(unittest.EntryIDsFixture(8))
	require.NoError(t, err)
	assert.Equal(t,
		"b504dd22fea45c8cc8d815758e0f4320087e13fbaad0ba7f0308f604969ba925",
		hex.EncodeToString(root[:]))
}

func TestBuildCommitmentNoEntries(t *testing.T) {
	_, err := BuildCommitment(nil)
	require.ErrorIs(t, err, draw.ErrNoEntries)
}
