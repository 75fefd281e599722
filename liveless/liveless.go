// Package liveless activates the spoofing layer: it runs the capability
// gate, learns the public address, builds the replacement functions and
// hands them to the hook installer.
package liveless

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync/atomic"

	"github.com/aethiopicuschan/liveless/config"
	"github.com/aethiopicuschan/liveless/gate"
	"github.com/aethiopicuschan/liveless/hooks"
	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/aethiopicuschan/liveless/qos"
	"github.com/aethiopicuschan/liveless/session"
	"github.com/aethiopicuschan/liveless/signin"
	"github.com/aethiopicuschan/liveless/stun"
	"github.com/aethiopicuschan/liveless/xnet"
	"github.com/pion/logging"
)

// Layer is the state of one activation attempt.
//
// Everything except Activated is fixed before the hooks are installed.
type Layer struct {
	translator *xnet.Translator
	sessions   *session.Responder
	qos        *qos.Responder
	redirect   xnet.RedirectTarget
	external   netip.Addr
	table      *hooks.Table

	activated atomic.Bool
}

// Activate runs the activation sequence once.
//
// The returned Layer is never nil. When err is non-nil the layer is not
// activated and reports how far the sequence got.
func Activate(ctx context.Context, cfg *config.Config, installer hooks.Installer, opts ...Option) (*Layer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.loggers == nil {
		o.loggers = cfg.LoggerFactory()
	}
	log := o.loggers.NewLogger("liveless")
	l := &Layer{}

	if !cfg.EnableGoCentral && !cfg.EnableLiveless {
		log.Info("liveless and gocentral disabled, nothing to do")
		return l, ErrDisabled
	}

	g := gate.New(o.prober, o.notifier,
		gate.WithEmulator(cfg.Emulator),
		gate.WithLogger(o.loggers.NewLogger("gate")),
		gate.WithMetrics(o.metrics),
	)
	if !g.CanActivate(ctx) {
		return l, ErrRefused
	}

	l.external = discoverExternal(ctx, cfg, &o, log)

	redirectIP := cfg.Redirect()
	if !redirectIP.IsValid() {
		redirectIP = l.external
	}
	redirect, err := xnet.NewRedirectTarget(redirectIP, xnet.OnlinePort)
	if err != nil {
		return l, fmt.Errorf("%w: %w", ErrNoRedirect, err)
	}
	l.redirect = redirect
	log.Infof("redirecting unknown peers to %s", redirect)

	l.translator = xnet.NewTranslator(redirect,
		xnet.WithExternal(l.external),
		xnet.WithLogger(o.loggers.NewLogger("xnet")),
		xnet.WithMetrics(o.metrics),
	)
	l.sessions = session.NewResponder(redirect,
		session.WithUpstream(o.upstream),
		session.WithLogger(o.loggers.NewLogger("session")),
		session.WithMetrics(o.metrics),
	)
	l.qos = qos.NewResponder(
		qos.WithLogger(o.loggers.NewLogger("qos")),
		qos.WithMetrics(o.metrics),
	)
	l.table = l.buildTable(cfg)

	if err := installer.Install(ctx, l.table); err != nil {
		return l, fmt.Errorf("liveless: install hooks: %w", err)
	}
	log.Infof("applied patches: %v", l.table.Names())
	if cfg.EnableGoCentral {
		log.Info("applied gocentral patches")
	}

	l.activated.Store(true)
	return l, nil
}

// discoverExternal returns the STUN mapped address, or external_ip when
// discovery is skipped or fails.
func discoverExternal(ctx context.Context, cfg *config.Config, o *options, log logging.LeveledLogger) netip.Addr {
	fallback := cfg.External()
	switch {
	case cfg.STUNServer == "":
		log.Debug("STUN server not set")
		o.metrics.ObserveDiscovery(metrics.DiscoverySkipped)
		return fallback
	case cfg.STUNPort == 0:
		log.Debug("STUN port not set")
		o.metrics.ObserveDiscovery(metrics.DiscoverySkipped)
		return fallback
	}

	d := o.discoverer
	if d == nil {
		d = &stun.Client{
			Timeout:           cfg.STUNTimeout,
			LocalPort:         cfg.STUNLocalPort,
			VerifyTransaction: cfg.STUNVerifyTransaction,
			Logger:            o.loggers.NewLogger("stun"),
		}
	}

	addr, err := d.Discover(ctx, cfg.STUNServer, cfg.STUNPort)
	if err != nil {
		result := metrics.DiscoveryFailed
		if stun.NothingLearned(err) {
			result = metrics.DiscoveryNothing
		}
		o.metrics.ObserveDiscovery(result)

		var de *stun.DiscoveryError
		if errors.As(err, &de) {
			log.Warnf("could not get IP via STUN at %s stage: %v", de.Stage, de.Err)
		} else {
			log.Warnf("could not get IP via STUN: %v", err)
		}
		return fallback
	}

	o.metrics.ObserveDiscovery(metrics.DiscoveryOK)
	log.Infof("external IP %s", addr.IP)
	return addr.IP
}

func (l *Layer) buildTable(cfg *config.Config) *hooks.Table {
	t := &hooks.Table{
		SocketOptions:    hooks.Socket,
		UseSecureSockets: hooks.UseSecureSockets,
		SigninInfo:       signin.SpoofInfo,
		SigninState:      signin.SpoofState,
		CheckPrivilege:   signin.CheckPrivilege,
		GoCentral:        cfg.EnableGoCentral,
	}
	if !cfg.EnableLiveless {
		return t
	}

	t.SessionCreate = l.sessions.Create
	t.SessionJoinRemote = l.sessions.JoinRemote
	t.SessionModify = l.sessions.Modify
	t.SessionSearch = l.sessions.Search
	t.NetConnect = hooks.Succeed
	t.RegisterKey = hooks.Succeed
	t.UnregisterKey = hooks.Succeed
	t.UnregisterInAddr = hooks.Succeed
	t.TitleXnAddr = l.translator.TitleAddr
	t.XnAddrToInAddr = l.translator.InAddr
	t.QosLookup = l.qos.Lookup
	return t
}

// Activated reports whether the hooks were installed.
func (l *Layer) Activated() bool { return l.activated.Load() }

// Translator is nil until a redirect target is known.
func (l *Layer) Translator() *xnet.Translator { return l.translator }

// Sessions is nil until a redirect target is known.
func (l *Layer) Sessions() *session.Responder { return l.sessions }

// QoS is nil until a redirect target is known.
func (l *Layer) QoS() *qos.Responder { return l.qos }

// Redirect returns the redirect target, zero before it is chosen.
func (l *Layer) Redirect() xnet.RedirectTarget { return l.redirect }

// External returns the public address in use, possibly invalid.
func (l *Layer) External() netip.Addr { return l.external }

// Hooks lists the replacement functions handed to the installer.
func (l *Layer) Hooks() []string {
	if l.table == nil {
		return nil
	}
	return l.table.Names()
}
