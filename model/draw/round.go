// Package draw contains the domain model of the fair-draw protocol: rounds,
// entries, the round lifecycle states and the protocol error taxonomy.
package draw

import (
	"github.com/google/uuid"
)

// RoundID identifies a draw round. Round ids are allocated monotonically by
// the lottery engine and never reused.
type RoundID uint64

// EntryID identifies an entry within the round that created it. Entry ids are
// scoped to their round; id N of round A and id N of round B are unrelated.
type EntryID uint64

// RequestID correlates an outbound randomness request with its asynchronous
// fulfillment.
type RequestID = uuid.UUID

// Seed is the single random value obtained from the external randomness
// service for one round. It is zero until the request is fulfilled.
type Seed [32]byte

// Root is the digest committing to a round's frozen entry sequence.
// It is zero until the round is committed and never recomputed afterwards.
type Root [32]byte

// RoundState captures where a round is in its lifecycle. The state machine is
// linear and never regresses:
//
//	Open -> Closed -> Committed -> RandomnessRequested -> Resolved
type RoundState int

const (
	RoundStateUnknown RoundState = iota
	// RoundStateOpen accepts entry submissions.
	RoundStateOpen
	// RoundStateClosed has a frozen entry sequence but no commitment yet.
	// Closing and committing happen in one atomic operation, so a round is
	// never observable at rest in this state.
	RoundStateClosed
	// RoundStateCommitted has a root digest over the frozen entries.
	RoundStateCommitted
	// RoundStateRandomnessRequested is waiting for the external randomness
	// service to fulfill the round's single outstanding request.
	RoundStateRandomnessRequested
	// RoundStateResolved has a seed and a winner sequence. Terminal.
	RoundStateResolved
)

func (s RoundState) String() string {
	switch s {
	case RoundStateOpen:
		return "Open"
	case RoundStateClosed:
		return "Closed"
	case RoundStateCommitted:
		return "Committed"
	case RoundStateRandomnessRequested:
		return "RandomnessRequested"
	case RoundStateResolved:
		return "Resolved"
	default:
		return "Unknown"
	}
}

// IsTerminal returns true if no further transitions are possible.
func (s RoundState) IsTerminal() bool {
	return s == RoundStateResolved
}

// Round is the persisted record of one draw round. The entry sequence itself
// lives in a separate entry arena keyed by (round id, insertion index); the
// round record only carries the count, per the persisted state layout.
type Round struct {
	ID          RoundID
	State       RoundState
	WinnerCount uint32
	EntryCount  uint32
	Root        Root
	RequestID   RequestID
	Seed        Seed
	Winners     []EntryID
}
