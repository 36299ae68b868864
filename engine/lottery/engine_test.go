package lottery

import (
	"context"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/module/commitment"
	"github.com/drawlab/fairdraw/module/metrics"
	"github.com/drawlab/fairdraw/module/randomness"
	storagebadger "github.com/drawlab/fairdraw/storage/badger"
	"github.com/drawlab/fairdraw/utils/unittest"
)

type recordingConsumer struct {
	rounds  []draw.RoundID
	winners [][]draw.EntryID
}

func (c *recordingConsumer) OnRoundResolved(round draw.RoundID, winners []draw.EntryID) {
	c.rounds = append(c.rounds, round)
	c.winners = append(c.winners, winners)
}

type testHarness struct {
	engine   *Engine
	service  *randomness.LocalService
	consumer *recordingConsumer
}

func withHarness(t *testing.T, f func(h *testHarness), opts ...Option) {
	unittest.RunWithBadgerDB(t, func(db *badgerdb.DB) {
		log := unittest.Logger()
		service := randomness.NewLocalService(log, "randomness-service")
		consumer := &recordingConsumer{}

		engine, err := New(
			log,
			metrics.NewNoopCollector(),
			storagebadger.NewRounds(db),
			storagebadger.NewEntries(db),
			service,
			service.Identity(),
			consumer,
			opts...,
		)
		require.NoError(t, err)

		f(&testHarness{engine: engine, service: service, consumer: consumer})
	})
}

// runDraw drives a round through the complete lifecycle and returns its id
// and request id.
func runDraw(t *testing.T, h *testHarness, entries int, winners uint32) (draw.RoundID, draw.RequestID) {
	roundID, err := h.engine.CreateRound(winners)
	require.NoError(t, err)

	for i := 0; i < entries; i++ {
		entryID, err := h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)
		require.Equal(t, draw.EntryID(i+1), entryID)
	}

	require.NoError(t, h.engine.CloseRound(roundID))

	requestID, err := h.engine.RequestRandomness(context.Background(), roundID)
	require.NoError(t, err)

	require.NoError(t, h.service.Fulfill(h.engine.Gateway(), requestID))

	return roundID, requestID
}

func TestEngineLifecycle(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(3)
		require.NoError(t, err)

		summary, err := h.engine.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundStateOpen, summary.State)
		assert.Equal(t, draw.Root{}, summary.Root)

		for i := 0; i < 8; i++ {
			_, err := h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
			require.NoError(t, err)
		}

		require.NoError(t, h.engine.CloseRound(roundID))

		summary, err = h.engine.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundStateCommitted, summary.State)
		assert.Equal(t, uint32(8), summary.EntryCount)
		assert.NotEqual(t, draw.Root{}, summary.Root)

		// the root is derived solely from the frozen sequence
		expectedRoot, err := commitment.BuildCommitment(unittest.EntryIDsFixture(8))
		require.NoError(t, err)
		assert.Equal(t, expectedRoot, summary.Root)

		requestID, err := h.engine.RequestRandomness(context.Background(), roundID)
		require.NoError(t, err)

		summary, err = h.engine.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundStateRandomnessRequested, summary.State)

		require.NoError(t, h.service.Fulfill(h.engine.Gateway(), requestID))

		summary, err = h.engine.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundStateResolved, summary.State)
		require.Len(t, summary.Winners, 3)

		// winners are distinct members of the frozen population
		seen := make(map[draw.EntryID]struct{})
		for _, winner := range summary.Winners {
			_, dup := seen[winner]
			assert.False(t, dup)
			seen[winner] = struct{}{}
			assert.True(t, winner >= 1 && winner <= 8)
		}

		// the escrow collaborator was notified exactly once
		require.Len(t, h.consumer.rounds, 1)
		assert.Equal(t, roundID, h.consumer.rounds[0])
		assert.Equal(t, summary.Winners, h.consumer.winners[0])
	})
}

func TestEngineProofRoundTrip(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, _ := runDraw(t, h, 7, 2)

		summary, err := h.engine.GetRound(roundID)
		require.NoError(t, err)

		for _, winner := range summary.Winners {
			proof, err := h.engine.GetProof(roundID, winner)
			require.NoError(t, err)

			valid, err := h.engine.Verify(roundID, winner, proof)
			require.NoError(t, err)
			assert.True(t, valid)
		}

		// a proof for entry 3 (index 2) of the 7-entry round verifies true
		// against its own root and false against a different round's root,
		// for the same entry id
		otherID, _ := runDraw(t, h, 8, 2)

		proof, err := h.engine.GetProof(roundID, 3)
		require.NoError(t, err)

		valid, err := h.engine.Verify(roundID, 3, proof)
		require.NoError(t, err)
		assert.True(t, valid)

		valid, err = h.engine.Verify(otherID, 3, proof)
		require.NoError(t, err)
		assert.False(t, valid)

		// verifying a proof against the wrong entry id also fails
		valid, err = h.engine.Verify(roundID, 4, proof)
		require.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestEngineSingleEntryDraw(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, _ := runDraw(t, h, 1, 1)

		summary, err := h.engine.GetRound(roundID)
		require.NoError(t, err)
		require.Equal(t, []draw.EntryID{1}, summary.Winners)

		// the root over a single leaf is the leaf hash
		expectedRoot, err := commitment.BuildCommitment([]draw.EntryID{1})
		require.NoError(t, err)
		assert.Equal(t, expectedRoot, summary.Root)
	})
}

func TestEngineCloseEmptyRound(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(1)
		require.NoError(t, err)

		err = h.engine.CloseRound(roundID)
		require.ErrorIs(t, err, draw.ErrNoEntries)

		// the rejected operation left the state unchanged
		summary, err := h.engine.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundStateOpen, summary.State)
	})
}

func TestEngineSubmitAfterClose(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(1)
		require.NoError(t, err)
		_, err = h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)
		require.NoError(t, h.engine.CloseRound(roundID))

		_, err = h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.ErrorIs(t, err, draw.ErrAlreadyClosed)

		err = h.engine.CloseRound(roundID)
		require.ErrorIs(t, err, draw.ErrAlreadyClosed)
	})
}

func TestEngineRequestBeforeCommit(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(1)
		require.NoError(t, err)

		_, err = h.engine.RequestRandomness(context.Background(), roundID)
		require.ErrorIs(t, err, draw.ErrNotCommitted)
	})
}

func TestEngineDuplicateRandomnessRequest(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(1)
		require.NoError(t, err)
		_, err = h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)
		require.NoError(t, h.engine.CloseRound(roundID))

		_, err = h.engine.RequestRandomness(context.Background(), roundID)
		require.NoError(t, err)

		_, err = h.engine.RequestRandomness(context.Background(), roundID)
		require.ErrorIs(t, err, draw.ErrDuplicateRequest)
	})
}

// delivering the fulfillment twice must leave the winner list unchanged and
// reject the second delivery
func TestEngineIdempotentResolution(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, requestID := runDraw(t, h, 5, 2)

		summary, err := h.engine.GetRound(roundID)
		require.NoError(t, err)
		winners := summary.Winners

		// second delivery through the gateway
		err = h.engine.Gateway().OnRandomnessFulfilled(h.service.Identity(), requestID, unittest.SeedFixture())
		require.ErrorIs(t, err, draw.ErrAlreadyFulfilled)

		// direct re-entry into the resolve path
		err = h.engine.OnSeedResolved(roundID, requestID, unittest.SeedFixture())
		require.ErrorIs(t, err, draw.ErrAlreadyResolved)

		summary, err = h.engine.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, winners, summary.Winners)
		require.Len(t, h.consumer.rounds, 1)
	})
}

func TestEngineResolveWrongRequest(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(1)
		require.NoError(t, err)
		_, err = h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)
		require.NoError(t, h.engine.CloseRound(roundID))
		_, err = h.engine.RequestRandomness(context.Background(), roundID)
		require.NoError(t, err)

		wrongRequest, err := h.service.Request(context.Background(), roundID)
		require.NoError(t, err)

		err = h.engine.OnSeedResolved(roundID, wrongRequest, unittest.SeedFixture())
		require.ErrorIs(t, err, draw.ErrUnknownRequest)
	})
}

func TestEngineWinnerCountBounds(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		_, err := h.engine.CreateRound(3)
		require.ErrorIs(t, err, draw.ErrInvalidWinnerCount)

		// winner count above the frozen entry count is rejected at close
		roundID, err := h.engine.CreateRound(2)
		require.NoError(t, err)
		_, err = h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)

		err = h.engine.CloseRound(roundID)
		require.ErrorIs(t, err, draw.ErrInvalidWinnerCount)
	}, WithMaxWinners(2))
}

func TestEngineProofBeforeCommit(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, err := h.engine.CreateRound(1)
		require.NoError(t, err)
		_, err = h.engine.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)

		_, err = h.engine.GetProof(roundID, 1)
		require.ErrorIs(t, err, draw.ErrNotCommitted)
	})
}

// the monotonic round counter must survive a restart so ids are never reused
func TestEngineRoundCounterResumes(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badgerdb.DB) {
		log := unittest.Logger()
		service := randomness.NewLocalService(log, "randomness-service")

		newEngine := func() *Engine {
			engine, err := New(
				log,
				metrics.NewNoopCollector(),
				storagebadger.NewRounds(db),
				storagebadger.NewEntries(db),
				service,
				service.Identity(),
				nil,
			)
			require.NoError(t, err)
			return engine
		}

		first := newEngine()
		for i := 0; i < 3; i++ {
			_, err := first.CreateRound(1)
			require.NoError(t, err)
		}

		second := newEngine()
		roundID, err := second.CreateRound(1)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundID(4), roundID)
	})
}

// an outstanding randomness request survives a restart: the fulfillment is
// matched against the round's persisted correlation id and resolves the
// round, however late it arrives
func TestEngineFulfillmentAfterRestart(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badgerdb.DB) {
		log := unittest.Logger()
		service := randomness.NewLocalService(log, "randomness-service")

		newEngine := func() *Engine {
			engine, err := New(
				log,
				metrics.NewNoopCollector(),
				storagebadger.NewRounds(db),
				storagebadger.NewEntries(db),
				service,
				service.Identity(),
				nil,
			)
			require.NoError(t, err)
			return engine
		}

		first := newEngine()
		roundID, err := first.CreateRound(1)
		require.NoError(t, err)
		_, err = first.OnEntrySubmitted(roundID, unittest.OwnerFixture())
		require.NoError(t, err)
		require.NoError(t, first.CloseRound(roundID))
		requestID, err := first.RequestRandomness(context.Background(), roundID)
		require.NoError(t, err)

		second := newEngine()
		err = second.Gateway().OnRandomnessFulfilled(service.Identity(), requestID, unittest.SeedFixture())
		require.NoError(t, err)

		summary, err := second.GetRound(roundID)
		require.NoError(t, err)
		assert.Equal(t, draw.RoundStateResolved, summary.State)
		assert.Equal(t, []draw.EntryID{1}, summary.Winners)
	})
}

func TestEngineProofUnknownEntry(t *testing.T) {
	withHarness(t, func(h *testHarness) {
		roundID, _ := runDraw(t, h, 3, 1)

		_, err := h.engine.GetProof(roundID, 4)
		require.ErrorIs(t, err, draw.ErrUnknownEntry)

		_, err = h.engine.GetProof(roundID, 0)
		require.ErrorIs(t, err, draw.ErrUnknownEntry)
	})
}
