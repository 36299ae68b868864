// Package lottery orchestrates the round lifecycle of the fair-draw
// protocol. The engine owns the state machine
//
//	Open -> Closed -> Committed -> RandomnessRequested -> Resolved
//
// and wires the commitment builder, the randomness gateway and the selector
// together. Every transition validates the exact expected predecessor state;
// no transition is retried automatically. A round whose randomness is never
// fulfilled remains visibly RandomnessRequested, which is a reportable, not
// silently recovered, condition.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/module"
	"github.com/drawlab/fairdraw/module/commitment"
	"github.com/drawlab/fairdraw/module/randomness"
	"github.com/drawlab/fairdraw/module/selection"
	"github.com/drawlab/fairdraw/storage"
)

// DefaultMaxWinners bounds the winner count a round may be created with.
const DefaultMaxWinners = 100

// ResolutionConsumer is notified once per round when the round resolves, so
// the escrow collaborator can release funds and ownership. The engine itself
// never moves value.
type ResolutionConsumer interface {
	OnRoundResolved(round draw.RoundID, winners []draw.EntryID)
}

// RoundSummary is the read-only view of a round exposed on the query surface.
type RoundSummary struct {
	ID         draw.RoundID
	State      draw.RoundState
	EntryCount uint32
	Root       draw.Root
	Winners    []draw.EntryID
}

// Option customizes engine construction.
type Option func(*Engine)

// WithMaxWinners overrides the bound on per-round winner counts.
func WithMaxWinners(max uint32) Option {
	return func(e *Engine) {
		e.maxWinners = max
	}
}

// Engine is the round lifecycle controller. All state-mutating operations are
// serialized by a single mutex, so transitions are atomic with respect to one
// another and no partial application is ever observable.
type Engine struct {
	log      zerolog.Logger
	metrics  module.LotteryMetrics
	rounds   storage.Rounds
	entries  storage.Entries
	gateway  *randomness.Gateway
	consumer ResolutionConsumer

	mu         sync.Mutex
	lastRound  *atomic.Uint64
	maxWinners uint32
}

var _ randomness.SeedSink = (*Engine)(nil)

// New creates the lifecycle controller on top of the given stores and
// randomness service. The engine registers itself as the gateway's seed sink;
// fulfillments must be delivered through Gateway().
func New(
	log zerolog.Logger,
	metrics module.LotteryMetrics,
	rounds storage.Rounds,
	entries storage.Entries,
	service randomness.Service,
	fulfiller string,
	consumer ResolutionConsumer,
	opts ...Option,
) (*Engine, error) {

	e := &Engine{
		log:        log.With().Str("component", "lottery_engine").Logger(),
		metrics:    metrics,
		rounds:     rounds,
		entries:    entries,
		consumer:   consumer,
		lastRound:  atomic.NewUint64(0),
		maxWinners: DefaultMaxWinners,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.gateway = randomness.NewGateway(log, metrics, service, fulfiller, e)

	// resume the monotonic round counter from storage
	latest, err := e.rounds.LatestID()
	if err == nil {
		e.lastRound.Store(uint64(latest))
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not look up latest round: %w", err)
	}

	// re-register outstanding randomness requests, so a fulfillment that
	// arrives after a restart is still matched against its persisted
	// correlation id; fulfillment has no time bound
	for id := uint64(1); id <= e.lastRound.Load(); id++ {
		round, err := e.rounds.ByID(draw.RoundID(id))
		if err != nil {
			return nil, fmt.Errorf("could not retrieve round %d: %w", id, err)
		}
		if round.State == draw.RoundStateRandomnessRequested {
			e.gateway.Restore(round.ID, round.RequestID)
		}
	}

	return e, nil
}

// Gateway returns the randomness gateway fulfillments are delivered through.
func (e *Engine) Gateway() *randomness.Gateway {
	return e.gateway
}

// CreateRound opens a new round configured to select winnerCount winners.
//
// Expected errors:
//   - draw.ErrInvalidWinnerCount if winnerCount exceeds the configured bound
func (e *Engine) CreateRound(winnerCount uint32) (draw.RoundID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if winnerCount > e.maxWinners {
		return 0, draw.ErrInvalidWinnerCount
	}

	round := &draw.Round{
		ID:          draw.RoundID(e.lastRound.Add(1)),
		State:       draw.RoundStateOpen,
		WinnerCount: winnerCount,
	}
	err := e.rounds.Store(round)
	if err != nil {
		return 0, fmt.Errorf("could not store round: %w", err)
	}

	e.metrics.RoundCreated()
	e.log.Info().
		Uint64("round", uint64(round.ID)).
		Uint32("winner_count", winnerCount).
		Msg("round created")

	return round.ID, nil
}

// OnEntrySubmitted appends an entry for owner to the open round and returns
// the entry id. This is the inbound boundary of the entry custody
// collaborator; payment escrow happens on their side before this call.
//
// Expected errors:
//   - draw.ErrAlreadyClosed if the round is no longer open
func (e *Engine) OnEntrySubmitted(roundID draw.RoundID, owner string) (draw.EntryID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return 0, fmt.Errorf("could not retrieve round: %w", err)
	}
	if round.State != draw.RoundStateOpen {
		return 0, draw.ErrAlreadyClosed
	}

	entry := &draw.Entry{
		ID:    draw.EntryID(round.EntryCount + 1),
		Owner: owner,
		Index: round.EntryCount,
	}
	round.EntryCount++
	err = e.entries.Store(round, entry)
	if err != nil {
		return 0, fmt.Errorf("could not store entry: %w", err)
	}

	e.metrics.EntrySubmitted()

	return entry.ID, nil
}

// CloseRound freezes the round's entry sequence and commits to it. Closing
// and committing happen atomically: the round is never observable at rest
// between the two states.
//
// Expected errors:
//   - draw.ErrAlreadyClosed if the round is no longer open
//   - draw.ErrNoEntries if the round has no entries
//   - draw.ErrInvalidWinnerCount if the configured winner count exceeds the
//     frozen entry count
func (e *Engine) CloseRound(roundID draw.RoundID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return fmt.Errorf("could not retrieve round: %w", err)
	}
	if round.State != draw.RoundStateOpen {
		return draw.ErrAlreadyClosed
	}
	if round.EntryCount == 0 {
		return draw.ErrNoEntries
	}
	if round.WinnerCount > round.EntryCount {
		return draw.ErrInvalidWinnerCount
	}

	entryIDs, err := e.frozenEntryIDs(roundID, round.EntryCount)
	if err != nil {
		return err
	}

	root, err := commitment.BuildCommitment(entryIDs)
	if err != nil {
		return fmt.Errorf("could not build commitment: %w", err)
	}

	err = e.transitionTo(round, draw.RoundStateClosed)
	if err != nil {
		return err
	}
	err = e.transitionTo(round, draw.RoundStateCommitted)
	if err != nil {
		return err
	}

	round.Root = root
	err = e.rounds.Update(round)
	if err != nil {
		return fmt.Errorf("could not update round: %w", err)
	}

	e.metrics.RoundCommitted(len(entryIDs))
	e.log.Info().
		Uint64("round", uint64(roundID)).
		Int("entry_count", len(entryIDs)).
		Hex("root", root[:]).
		Msg("round committed")

	return nil
}

// RequestRandomness issues the round's single randomness request.
//
// Expected errors:
//   - draw.ErrNotCommitted if the round is not committed yet
//   - draw.ErrDuplicateRequest if randomness was already requested
func (e *Engine) RequestRandomness(ctx context.Context, roundID draw.RoundID) (draw.RequestID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return draw.RequestID{}, fmt.Errorf("could not retrieve round: %w", err)
	}
	switch round.State {
	case draw.RoundStateCommitted:
		// proceed
	case draw.RoundStateRandomnessRequested, draw.RoundStateResolved:
		return draw.RequestID{}, draw.ErrDuplicateRequest
	default:
		return draw.RequestID{}, draw.ErrNotCommitted
	}

	requestID, err := e.gateway.RequestRandomness(ctx, roundID)
	if err != nil {
		return draw.RequestID{}, err
	}

	err = e.transitionTo(round, draw.RoundStateRandomnessRequested)
	if err != nil {
		return draw.RequestID{}, err
	}

	round.RequestID = requestID
	err = e.rounds.Update(round)
	if err != nil {
		return draw.RequestID{}, fmt.Errorf("could not update round: %w", err)
	}

	return requestID, nil
}

// OnSeedResolved is the gateway's seed sink. It re-validates round state,
// runs the selector over the frozen entries with the fulfilled seed, stores
// the winners and marks the round terminal.
//
// Expected errors:
//   - draw.ErrAlreadyResolved if the round already resolved
//   - draw.ErrUnknownRequest if the request id does not match the round's
//   - draw.ErrInvalidTransition if the round never requested randomness
func (e *Engine) OnSeedResolved(roundID draw.RoundID, requestID draw.RequestID, seed draw.Seed) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return fmt.Errorf("could not retrieve round: %w", err)
	}
	if round.State == draw.RoundStateResolved {
		return draw.ErrAlreadyResolved
	}
	if round.State != draw.RoundStateRandomnessRequested {
		return draw.ErrInvalidTransition
	}
	if round.RequestID != requestID {
		return draw.ErrUnknownRequest
	}

	entryIDs, err := e.frozenEntryIDs(roundID, round.EntryCount)
	if err != nil {
		return err
	}

	winners, err := selection.SelectWinners(entryIDs, seed, int(round.WinnerCount))
	if err != nil {
		return fmt.Errorf("could not select winners: %w", err)
	}

	err = e.transitionTo(round, draw.RoundStateResolved)
	if err != nil {
		return err
	}

	round.Seed = seed
	round.Winners = winners
	err = e.rounds.Update(round)
	if err != nil {
		return fmt.Errorf("could not update round: %w", err)
	}

	e.metrics.RoundResolved(len(winners))
	e.log.Info().
		Uint64("round", uint64(roundID)).
		Int("winner_count", len(winners)).
		Msg("round resolved")

	if e.consumer != nil {
		e.consumer.OnRoundResolved(roundID, winners)
	}

	return nil
}

// GetRound returns the read-only summary of a round.
func (e *Engine) GetRound(roundID draw.RoundID) (*RoundSummary, error) {
	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve round: %w", err)
	}
	return &RoundSummary{
		ID:         round.ID,
		State:      round.State,
		EntryCount: round.EntryCount,
		Root:       round.Root,
		Winners:    round.Winners,
	}, nil
}

// GetProof generates the inclusion proof binding the given entry to the
// round's committed root. Proofs remain available indefinitely, also after
// the round resolves.
//
// Expected errors:
//   - draw.ErrNotCommitted if the round has no root yet
//   - draw.ErrUnknownEntry if the entry is not part of the round
func (e *Engine) GetProof(roundID draw.RoundID, entryID draw.EntryID) (*commitment.Proof, error) {
	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve round: %w", err)
	}

	index, err := entryIndex(round, entryID)
	if err != nil {
		return nil, err
	}

	entryIDs, err := e.frozenEntryIDs(roundID, round.EntryCount)
	if err != nil {
		return nil, err
	}

	return commitment.GenerateProof(entryIDs, index)
}

// Verify checks an inclusion proof for the given entry against the round's
// committed root.
//
// Expected errors:
//   - draw.ErrNotCommitted if the round has no root yet
//   - draw.ErrUnknownEntry if the entry is not part of the round
//   - commitment.InvalidProofLengthError / commitment.MalformedProofError on
//     structurally broken proofs
func (e *Engine) Verify(roundID draw.RoundID, entryID draw.EntryID, proof *commitment.Proof) (bool, error) {
	round, err := e.rounds.ByID(roundID)
	if err != nil {
		return false, fmt.Errorf("could not retrieve round: %w", err)
	}

	index, err := entryIndex(round, entryID)
	if err != nil {
		return false, err
	}

	return proof.Verify(round.Root, entryID, index, int(round.EntryCount))
}

// frozenEntryIDs loads a round's entry ids in canonical insertion order.
func (e *Engine) frozenEntryIDs(roundID draw.RoundID, expected uint32) ([]draw.EntryID, error) {
	entries, err := e.entries.ByRound(roundID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve entries: %w", err)
	}
	if uint32(len(entries)) != expected {
		return nil, fmt.Errorf("entry arena holds %d entries for round %d, expected %d",
			len(entries), roundID, expected)
	}
	entryIDs := make([]draw.EntryID, len(entries))
	for i, entry := range entries {
		entryIDs[i] = entry.ID
	}
	return entryIDs, nil
}

// entryIndex maps an entry id to its canonical leaf index. Entry ids are
// allocated sequentially starting at 1, so the index is id-1.
func entryIndex(round *draw.Round, entryID draw.EntryID) (int, error) {
	if round.State < draw.RoundStateCommitted {
		return 0, draw.ErrNotCommitted
	}
	if entryID < 1 || uint32(entryID) > round.EntryCount {
		return 0, draw.ErrUnknownEntry
	}
	return int(entryID - 1), nil
}

// transitionTo advances the round to the given state after validating that
// the transition starts from the exact expected predecessor state.
func (e *Engine) transitionTo(round *draw.Round, newState draw.RoundState) error {
	err := validateTransition(round.State, newState)
	if err != nil {
		return fmt.Errorf("round %d cannot transition from %s to %s: %w",
			round.ID, round.State, newState, err)
	}

	oldState := round.State
	round.State = newState

	e.log.Debug().
		Uint64("round", uint64(round.ID)).
		Str("old_state", oldState.String()).
		Str("new_state", newState.String()).
		Msg("round state transition")

	return nil
}

// validateTransition enforces the linear lifecycle; rounds never regress.
//
// Expected errors:
//   - draw.ErrInvalidTransition when the transition is invalid
func validateTransition(currentState draw.RoundState, newState draw.RoundState) error {
	switch newState {
	case draw.RoundStateClosed:
		if currentState == draw.RoundStateOpen {
			return nil
		}

	case draw.RoundStateCommitted:
		if currentState == draw.RoundStateClosed {
			return nil
		}

	case draw.RoundStateRandomnessRequested:
		if currentState == draw.RoundStateCommitted {
			return nil
		}

	case draw.RoundStateResolved:
		if currentState == draw.RoundStateRandomnessRequested {
			return nil
		}

	default:
		return fmt.Errorf("invalid transition to state: %s", newState)
	}

	return draw.ErrInvalidTransition
}
