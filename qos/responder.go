// Package qos fabricates quality-of-service results so a caller's
// connectivity check always passes.
package qos

import (
	"time"

	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/aethiopicuschan/liveless/xnet"
	"github.com/pion/logging"
)

// Values written into every sample.
const (
	ProbeCount     = 4
	RTTMin         = 4 * time.Millisecond
	RTTMedian      = 10 * time.Millisecond
	UpBitsPerSec   = 13125
	DownBitsPerSec = 21058
)

// Responder answers QoS lookups.
//
// It keeps no accumulator of its own: a lookup without an upstream result
// gets fresh storage. An upstream result is rewritten in place, so two
// outstanding lookups sharing one upstream Result see the last write.
type Responder struct {
	log     logging.LeveledLogger
	metrics *metrics.Metrics
}

// Option configures a Responder.
type Option func(*Responder)

// WithLogger sets the logger. The default is scoped "qos".
func WithLogger(l logging.LeveledLogger) Option {
	return func(r *Responder) {
		r.log = l
	}
}

// WithMetrics records lookups and samples on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Responder) {
		r.metrics = m
	}
}

// NewResponder returns a Responder with the given options applied.
func NewResponder(opts ...Option) *Responder {
	r := &Responder{}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.NewDefaultLoggerFactory().NewLogger("qos")
	}
	return r
}

// Lookup reports every target as reachable.
//
// With a nil upstream the result has one sample per target, and at least
// one. Otherwise each of upstream's samples is overwritten and upstream is
// returned.
func (r *Responder) Lookup(targets []xnet.XnAddr, upstream *Result) *Result {
	if len(targets) > 0 {
		r.log.Debugf("QoS lookup for offline %s online %s", targets[0].Offline, targets[0].Online)
	}

	res := upstream
	if res == nil {
		res = &Result{Samples: make([]Sample, max(1, len(targets)))}
	}
	for i := range res.Samples {
		res.Samples[i] = sample()
	}

	r.metrics.ObserveQos(len(res.Samples))
	return res
}

// LookupOne is Lookup for a single target.
func (r *Responder) LookupOne(target xnet.XnAddr, upstream *Result) *Result {
	return r.Lookup([]xnet.XnAddr{target}, upstream)
}

func sample() Sample {
	return Sample{
		ProbesSent:     ProbeCount,
		ProbesReceived: ProbeCount,
		Data:           []byte("A"),
		RTTMin:         RTTMin,
		RTTMedian:      RTTMedian,
		UpBitsPerSec:   UpBitsPerSec,
		DownBitsPerSec: DownBitsPerSec,
		Flags:          FlagComplete | FlagTargetContacted,
	}
}
