// Package metrics records payment and scanner events. The Prometheus recorder
// is served on /metrics by the API server.
package metrics

import "time"

// Label keys understood by every recorder.
const (
	LabelResult  = "result"
	LabelChainID = "chain_id"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
