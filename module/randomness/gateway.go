// Package randomness mediates between the round lifecycle and the external
// randomness service. The asynchronous boundary is an explicit two-phase
// handshake: the requesting phase returns a correlation id immediately, and
// the fulfilling phase arrives independently and later, with no guaranteed
// time bound. The gateway validates every fulfillment as a re-entry point and
// guarantees at most one accepted fulfillment per round.
package randomness

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/module"
)

// Service is the outbound side of the external randomness service. Request
// issues one randomness request for the given round and returns the
// service-assigned correlation id without blocking on fulfillment.
type Service interface {
	Request(ctx context.Context, round draw.RoundID) (draw.RequestID, error)
}

// SeedSink receives the single accepted random value for a round. The
// gateway performs no selection logic itself; it only hands the seed over.
type SeedSink interface {
	OnSeedResolved(round draw.RoundID, requestID draw.RequestID, seed draw.Seed) error
}

type request struct {
	round     draw.RoundID
	fulfilled bool
	seed      draw.Seed
}

// Gateway issues at most one randomness request per round and accepts at
// most one fulfillment per request, authenticated against the designated
// fulfiller identity.
type Gateway struct {
	log       zerolog.Logger
	metrics   module.LotteryMetrics
	service   Service
	fulfiller string
	sink      SeedSink

	mu       sync.Mutex
	requests map[draw.RequestID]*request
	byRound  map[draw.RoundID]draw.RequestID
}

// NewGateway creates a gateway that authenticates fulfillments against the
// given fulfiller identity and forwards accepted seeds to the sink.
func NewGateway(log zerolog.Logger, metrics module.LotteryMetrics, service Service, fulfiller string, sink SeedSink) *Gateway {
	return &Gateway{
		log:       log.With().Str("component", "randomness_gateway").Logger(),
		metrics:   metrics,
		service:   service,
		fulfiller: fulfiller,
		sink:      sink,
		requests:  make(map[draw.RequestID]*request),
		byRound:   make(map[draw.RoundID]draw.RequestID),
	}
}

// RequestRandomness issues the round's single randomness request and returns
// the correlation id assigned by the service.
//
// Expected errors:
//   - draw.ErrDuplicateRequest if the round already has an outstanding or
//     fulfilled request
func (g *Gateway) RequestRandomness(ctx context.Context, round draw.RoundID) (draw.RequestID, error) {
	g.mu.Lock()
	if _, ok := g.byRound[round]; ok {
		g.mu.Unlock()
		return uuid.Nil, draw.ErrDuplicateRequest
	}
	// reserve the round before releasing the lock so a concurrent caller
	// cannot issue a second request while the service call is in flight
	g.byRound[round] = uuid.Nil
	g.mu.Unlock()

	requestID, err := g.service.Request(ctx, round)
	if err != nil {
		g.mu.Lock()
		delete(g.byRound, round)
		g.mu.Unlock()
		return uuid.Nil, fmt.Errorf("could not request randomness for round %d: %w", round, err)
	}

	g.mu.Lock()
	g.byRound[round] = requestID
	g.requests[requestID] = &request{round: round}
	g.mu.Unlock()

	g.metrics.RandomnessRequested()
	g.log.Info().
		Uint64("round", uint64(round)).
		Str("request_id", requestID.String()).
		Msg("randomness requested")

	return requestID, nil
}

// OnRandomnessFulfilled is the inbound callback of the external randomness
// service. It re-validates request state on every call so duplicate or
// out-of-order deliveries are rejected, stores the raw random value, and
// signals the sink to proceed to selection. A delivery whose downstream
// handling fails is not consumed, so the service may redeliver it.
//
// Expected errors:
//   - draw.ErrUnauthorizedFulfiller if caller is not the designated service
//     identity
//   - draw.ErrUnknownRequest if the request id was never issued
//   - draw.ErrAlreadyFulfilled if the request already received its value
func (g *Gateway) OnRandomnessFulfilled(caller string, requestID draw.RequestID, value draw.Seed) error {
	if caller != g.fulfiller {
		g.metrics.FulfillmentRejected()
		g.log.Warn().Str("caller", caller).Msg("rejected fulfillment from unauthorized caller")
		return draw.ErrUnauthorizedFulfiller
	}

	g.mu.Lock()
	req, ok := g.requests[requestID]
	if !ok {
		g.mu.Unlock()
		g.metrics.FulfillmentRejected()
		return draw.ErrUnknownRequest
	}
	if req.fulfilled {
		g.mu.Unlock()
		g.metrics.FulfillmentRejected()
		return draw.ErrAlreadyFulfilled
	}
	req.fulfilled = true
	req.seed = value
	round := req.round
	g.mu.Unlock()

	err := g.sink.OnSeedResolved(round, requestID, value)
	if err != nil {
		// the value never reached the controller; reopen the request so
		// the service may redeliver
		g.mu.Lock()
		req.fulfilled = false
		g.mu.Unlock()
		return err
	}

	g.log.Info().
		Uint64("round", uint64(round)).
		Str("request_id", requestID.String()).
		Msg("randomness fulfilled")

	return nil
}

// Restore re-registers an outstanding request that was issued before a
// restart, so a late fulfillment can still be matched against its persisted
// correlation id and accepted.
func (g *Gateway) Restore(round draw.RoundID, requestID draw.RequestID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byRound[round] = requestID
	g.requests[requestID] = &request{round: round}
}
