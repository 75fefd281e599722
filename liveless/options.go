package liveless

import (
	"context"

	"github.com/aethiopicuschan/liveless/gate"
	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/aethiopicuschan/liveless/session"
	"github.com/aethiopicuschan/liveless/stun"
	"github.com/pion/logging"
)

// Discoverer learns the host's public address. *stun.Client implements it.
type Discoverer interface {
	Discover(ctx context.Context, host string, port uint16) (stun.MappedAddress, error)
}

type options struct {
	prober     gate.Prober
	notifier   gate.Notifier
	discoverer Discoverer
	loggers    logging.LoggerFactory
	metrics    *metrics.Metrics
	upstream   session.SearchFunc
}

// Option configures Activate.
type Option func(*options)

// WithProber sets the service probe used by the capability gate. Without
// one activation is refused unless the config targets an emulator.
func WithProber(p gate.Prober) Option {
	return func(o *options) {
		o.prober = p
	}
}

// WithNotifier sets where the refusal warning is shown.
func WithNotifier(n gate.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithDiscoverer replaces the STUN client built from the config.
func WithDiscoverer(d Discoverer) Option {
	return func(o *options) {
		o.discoverer = d
	}
}

// WithLoggerFactory replaces the factory built from log_level.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(o *options) {
		o.loggers = f
	}
}

// WithMetrics is passed on to every component built by Activate.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithUpstreamSearch sets the real session search, called before every
// synthetic answer.
func WithUpstreamSearch(f session.SearchFunc) Option {
	return func(o *options) {
		o.upstream = f
	}
}
