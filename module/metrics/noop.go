package metrics

import "github.com/drawlab/fairdraw/module"

// NoopCollector discards all metrics. Used in tests.
type NoopCollector struct{}

var _ module.LotteryMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) RoundCreated()        {}
func (nc *NoopCollector) EntrySubmitted()      {}
func (nc *NoopCollector) RoundCommitted(int)   {}
func (nc *NoopCollector) RandomnessRequested() {}
func (nc *NoopCollector) FulfillmentRejected() {}
func (nc *NoopCollector) RoundResolved(int)    {}
