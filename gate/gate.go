// Package gate decides whether the spoofing layer may activate.
//
// Spoofing on a console that already holds a live session with the real
// service breaks that session, so activation must be refused there.
package gate

import (
	"context"
	"errors"

	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/pion/logging"
)

// ErrLiveSession may be wrapped by a Prober error to report that the probe
// failed because a live session got in the way.
var ErrLiveSession = errors.New("gate: live session detected")

// Warning shown when activation is refused.
const (
	WarningTitle   = "Liveless Warning"
	WarningMessage = "Your console is currently connected to the online service. " +
		"You are not able to play through Liveless. " +
		"Block the online service in your console settings and restart."
)

// Prober looks up the real online service.
//
// A nil error means the service answered, which only happens with a live
// session.
type Prober interface {
	ServiceLookup(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) ServiceLookup(ctx context.Context) error { return f(ctx) }

// Notifier shows a blocking warning to the user.
type Notifier interface {
	Warn(ctx context.Context, title, message string) error
}

// Gate is the capability check run once before activation.
type Gate struct {
	prober   Prober
	notifier Notifier
	emulator bool
	log      logging.LeveledLogger
	metrics  *metrics.Metrics
}

// Option configures a Gate.
type Option func(*Gate)

// WithEmulator skips the probe: an emulated console never holds a live
// session.
func WithEmulator(on bool) Option {
	return func(g *Gate) {
		g.emulator = on
	}
}

// WithLogger sets the logger. The default is scoped "gate".
func WithLogger(l logging.LeveledLogger) Option {
	return func(g *Gate) {
		g.log = l
	}
}

// WithMetrics records each decision on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// New returns a Gate. A nil notifier logs the warning instead.
func New(prober Prober, notifier Notifier, opts ...Option) *Gate {
	g := &Gate{prober: prober, notifier: notifier}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logging.NewDefaultLoggerFactory().NewLogger("gate")
	}
	if g.notifier == nil {
		g.notifier = LogNotifier{Logger: g.log}
	}
	return g
}

// CanActivate reports whether spoofing may be installed. On refusal the
// warning is shown before it returns.
func (g *Gate) CanActivate(ctx context.Context) bool {
	ok := g.check(ctx)
	g.metrics.ObserveGate(ok)
	if ok {
		return true
	}

	if err := g.notifier.Warn(ctx, WarningTitle, WarningMessage); err != nil {
		g.log.Warnf("showing refusal warning: %v", err)
	}
	return false
}

func (g *Gate) check(ctx context.Context) bool {
	if g.emulator {
		g.log.Debug("emulator target, assuming no live session")
		return true
	}
	if g.prober == nil {
		g.log.Warn("no prober configured, cannot rule out a live session")
		return false
	}

	err := g.prober.ServiceLookup(ctx)
	g.log.Debugf("service lookup: %v", err)
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrLiveSession):
		return false
	default:
		return true
	}
}

// LogNotifier writes the warning to a logger.
type LogNotifier struct {
	Logger logging.LeveledLogger
}

func (n LogNotifier) Warn(_ context.Context, title, message string) error {
	n.Logger.Warnf("%s: %s", title, message)
	return nil
}
