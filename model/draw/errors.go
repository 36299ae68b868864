package draw

import "errors"

// Protocol validation failures. All are local and synchronous: a rejected
// operation leaves round state unchanged, and none are retried internally.
var (
	// ErrNoEntries is returned when closing a round that has no entries.
	ErrNoEntries = errors.New("round has no entries")

	// ErrAlreadyClosed is returned when submitting to or closing a round
	// that is no longer open.
	ErrAlreadyClosed = errors.New("round is no longer open")

	// ErrNotCommitted is returned when an operation requires a committed
	// root the round does not have yet.
	ErrNotCommitted = errors.New("round is not committed")

	// ErrDuplicateRequest is returned when a round already has an
	// outstanding or fulfilled randomness request.
	ErrDuplicateRequest = errors.New("randomness already requested for round")

	// ErrUnauthorizedFulfiller is returned when a fulfillment does not
	// originate from the designated randomness service identity.
	ErrUnauthorizedFulfiller = errors.New("fulfillment from unauthorized caller")

	// ErrUnknownRequest is returned when a fulfillment references a request
	// id that was never issued.
	ErrUnknownRequest = errors.New("unknown randomness request")

	// ErrAlreadyFulfilled is returned when a request receives a second
	// fulfillment.
	ErrAlreadyFulfilled = errors.New("randomness request already fulfilled")

	// ErrAlreadyResolved is returned when resolving a round twice.
	ErrAlreadyResolved = errors.New("round already resolved")

	// ErrInvalidWinnerCount is returned when the requested winner count
	// exceeds the round's entry count or the configured maximum.
	ErrInvalidWinnerCount = errors.New("invalid winner count")

	// ErrUnknownEntry is returned when an entry id is not part of the
	// referenced round.
	ErrUnknownEntry = errors.New("entry is not part of round")

	// ErrInvalidTransition is returned when a round state transition does
	// not start from the exact expected predecessor state.
	ErrInvalidTransition = errors.New("invalid round state transition")
)
