package draw

// Entry is a single submission into a round. Entries are created once and
// never mutated; after their round resolves they remain addressable so
// inclusion proofs can be generated and verified indefinitely.
type Entry struct {
	// ID is the entry's identifier within its round. Ids are allocated
	// sequentially starting at 1, so the entry with id N sits at leaf
	// index N-1 of the round's commitment tree.
	ID EntryID
	// Owner is the opaque identity of whoever holds the entry. Custody and
	// transfers are the escrow collaborator's concern, not this module's.
	Owner string
	// Index is the insertion order, used as the canonical leaf ordering.
	Index uint32
}
