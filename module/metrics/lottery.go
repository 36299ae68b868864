package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespaceFairdraw = "fairdraw"
	subsystemLottery  = "lottery"
)

// LotteryCollector reports the lottery protocol counters to prometheus.
type LotteryCollector struct {
	roundsCreated        prometheus.Counter
	entriesSubmitted     prometheus.Counter
	roundsCommitted      prometheus.Counter
	entriesPerRound      prometheus.Histogram
	randomnessRequests   prometheus.Counter
	rejectedFulfillments prometheus.Counter
	roundsResolved       prometheus.Counter
	winnersPerRound      prometheus.Histogram
}

func NewLotteryCollector() *LotteryCollector {

	lc := &LotteryCollector{

		roundsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "rounds_created_total",
			Help:      "count of draw rounds opened",
		}),

		entriesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "entries_submitted_total",
			Help:      "count of entries submitted across all rounds",
		}),

		roundsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "rounds_committed_total",
			Help:      "count of rounds whose entry sequence was frozen and committed",
		}),

		entriesPerRound: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "entries_per_round",
			Help:      "number of entries frozen into each committed round",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		randomnessRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "randomness_requests_total",
			Help:      "count of randomness requests issued to the external service",
		}),

		rejectedFulfillments: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "rejected_fulfillments_total",
			Help:      "count of randomness fulfillments rejected by the gateway",
		}),

		roundsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "rounds_resolved_total",
			Help:      "count of rounds that reached their terminal resolved state",
		}),

		winnersPerRound: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceFairdraw,
			Subsystem: subsystemLottery,
			Name:      "winners_per_round",
			Help:      "number of winners selected in each resolved round",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	return lc
}

func (lc *LotteryCollector) RoundCreated() {
	lc.roundsCreated.Inc()
}

func (lc *LotteryCollector) EntrySubmitted() {
	lc.entriesSubmitted.Inc()
}

func (lc *LotteryCollector) RoundCommitted(entryCount int) {
	lc.roundsCommitted.Inc()
	lc.entriesPerRound.Observe(float64(entryCount))
}

func (lc *LotteryCollector) RandomnessRequested() {
	lc.randomnessRequests.Inc()
}

func (lc *LotteryCollector) FulfillmentRejected() {
	lc.rejectedFulfillments.Inc()
}

func (lc *LotteryCollector) RoundResolved(winnerCount int) {
	lc.roundsResolved.Inc()
	lc.winnersPerRound.Observe(float64(winnerCount))
}
