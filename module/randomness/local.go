package randomness

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/drawlab/fairdraw/model/draw"
)

// LocalService is an in-process stand-in for the external randomness service,
// used by the CLI and integration-style tests. It assigns request ids
// immediately and fulfills on demand with entropy from crypto/rand, keeping
// the two phases of the handshake observable.
type LocalService struct {
	log      zerolog.Logger
	identity string

	mu      sync.Mutex
	pending map[draw.RequestID]draw.RoundID
}

// NewLocalService creates a local randomness service that fulfills under the
// given caller identity.
func NewLocalService(log zerolog.Logger, identity string) *LocalService {
	return &LocalService{
		log:      log.With().Str("component", "local_randomness").Logger(),
		identity: identity,
		pending:  make(map[draw.RequestID]draw.RoundID),
	}
}

// Identity returns the caller identity the service fulfills under.
func (s *LocalService) Identity() string {
	return s.identity
}

// Request assigns a fresh correlation id for the round's randomness request.
func (s *LocalService) Request(_ context.Context, round draw.RoundID) (draw.RequestID, error) {
	requestID := uuid.New()

	s.mu.Lock()
	s.pending[requestID] = round
	s.mu.Unlock()

	s.log.Debug().
		Uint64("round", uint64(round)).
		Str("request_id", requestID.String()).
		Msg("randomness request accepted")

	return requestID, nil
}

// Fulfill draws a fresh seed and delivers the pending request to the gateway.
// The pending slot is consumed regardless of whether the gateway accepts the
// delivery, matching the one-shot nature of the external service.
func (s *LocalService) Fulfill(gateway *Gateway, requestID draw.RequestID) error {
	s.mu.Lock()
	_, ok := s.pending[requestID]
	delete(s.pending, requestID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending request %s: %w", requestID, draw.ErrUnknownRequest)
	}

	seed, err := NewSeed()
	if err != nil {
		return fmt.Errorf("could not draw seed: %w", err)
	}

	return gateway.OnRandomnessFulfilled(s.identity, requestID, seed)
}

// NewSeed draws a fresh 32-byte seed from the system entropy source.
func NewSeed() (draw.Seed, error) {
	var seed draw.Seed
	if _, err := crand.Read(seed[:]); err != nil {
		return draw.Seed{}, fmt.Errorf("crypto/rand read failed: %w", err)
	}
	return seed, nil
}
