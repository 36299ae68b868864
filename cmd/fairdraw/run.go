package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/drawlab/fairdraw/engine/lottery"
	"github.com/drawlab/fairdraw/model/draw"
	"github.com/drawlab/fairdraw/module/metrics"
	"github.com/drawlab/fairdraw/module/randomness"
	storagebadger "github.com/drawlab/fairdraw/storage/badger"
)

// fulfillerIdentity is the designated caller identity the local randomness
// service fulfills under.
const fulfillerIdentity = "local-randomness-service"

var (
	flagDatadir     string
	flagEntries     uint32
	flagWinners     uint32
	flagMetricsAddr string

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "run one complete draw round end to end",
		RunE:  runE,
	}
)

func init() {
	runCmd.Flags().StringVar(&flagDatadir, "datadir", "", "directory for the badger database (temporary dir if empty)")
	runCmd.Flags().Uint32Var(&flagEntries, "entries", 10, "number of entries to submit")
	runCmd.Flags().Uint32Var(&flagWinners, "winners", 1, "number of winners to select")
	runCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "address to serve prometheus metrics on (disabled if empty)")
}

// logConsumer reports resolved rounds the way the escrow collaborator would
// be notified.
type logConsumer struct {
	log zerolog.Logger
}

func (c *logConsumer) OnRoundResolved(round draw.RoundID, winners []draw.EntryID) {
	c.log.Info().
		Uint64("round", uint64(round)).
		Int("winner_count", len(winners)).
		Msg("round resolved, escrow may release funds")
}

func runE(*cobra.Command, []string) error {
	log := newLogger()

	datadir := flagDatadir
	if datadir == "" {
		dir, err := os.MkdirTemp("", "fairdraw-data-")
		if err != nil {
			return fmt.Errorf("could not create data directory: %w", err)
		}
		defer os.RemoveAll(dir)
		datadir = dir
	}

	db, err := badger.Open(badger.DefaultOptions(datadir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	if flagMetricsAddr != "" {
		go func() {
			log.Info().Str("addr", flagMetricsAddr).Msg("serving metrics")
			err := http.ListenAndServe(flagMetricsAddr, promhttp.Handler())
			if err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	err = runDraw(log, db)

	// aggregate the draw error with shutdown errors
	var result *multierror.Error
	result = multierror.Append(result, err)
	result = multierror.Append(result, db.Close())
	return result.ErrorOrNil()
}

func runDraw(log zerolog.Logger, db *badger.DB) error {
	ctx := context.Background()

	collector := metrics.NewLotteryCollector()
	service := randomness.NewLocalService(log, fulfillerIdentity)
	consumer := &logConsumer{log: log}

	engine, err := lottery.New(
		log,
		collector,
		storagebadger.NewRounds(db),
		storagebadger.NewEntries(db),
		service,
		service.Identity(),
		consumer,
	)
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	roundID, err := engine.CreateRound(flagWinners)
	if err != nil {
		return fmt.Errorf("could not create round: %w", err)
	}

	for i := uint32(0); i < flagEntries; i++ {
		_, err := engine.OnEntrySubmitted(roundID, fmt.Sprintf("owner-%d", i+1))
		if err != nil {
			return fmt.Errorf("could not submit entry: %w", err)
		}
	}

	err = engine.CloseRound(roundID)
	if err != nil {
		return fmt.Errorf("could not close round: %w", err)
	}

	requestID, err := engine.RequestRandomness(ctx, roundID)
	if err != nil {
		return fmt.Errorf("could not request randomness: %w", err)
	}

	err = service.Fulfill(engine.Gateway(), requestID)
	if err != nil {
		return fmt.Errorf("could not fulfill randomness: %w", err)
	}

	summary, err := engine.GetRound(roundID)
	if err != nil {
		return fmt.Errorf("could not get round: %w", err)
	}

	log.Info().
		Uint64("round", uint64(roundID)).
		Str("state", summary.State.String()).
		Hex("root", summary.Root[:]).
		Msg("draw complete")

	for _, winner := range summary.Winners {
		proof, err := engine.GetProof(roundID, winner)
		if err != nil {
			return fmt.Errorf("could not generate proof for winner %d: %w", winner, err)
		}
		valid, err := engine.Verify(roundID, winner, proof)
		if err != nil {
			return fmt.Errorf("could not verify proof for winner %d: %w", winner, err)
		}
		log.Info().
			Uint64("winner", uint64(winner)).
			Bool("proof_valid", valid).
			Msg("winner")
	}

	return nil
}
