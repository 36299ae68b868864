package module

// LotteryMetrics exposes the counters the lottery engine and the randomness
// gateway report into.
type LotteryMetrics interface {
	// RoundCreated is called when a new round opens.
	RoundCreated()

	// EntrySubmitted is called when an entry is appended to an open round.
	EntrySubmitted()

	// RoundCommitted is called when a round's entry sequence is frozen and
	// its root digest is computed.
	RoundCommitted(entryCount int)

	// RandomnessRequested is called when a round's randomness request is
	// issued to the external service.
	RandomnessRequested()

	// FulfillmentRejected is called when the gateway rejects a fulfillment
	// (unauthorized caller, unknown request, duplicate delivery).
	FulfillmentRejected()

	// RoundResolved is called when a round reaches its terminal state.
	RoundResolved(winnerCount int)
}
