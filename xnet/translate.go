package xnet

import (
	"net/netip"

	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/pion/logging"
)

// Translator converts offline console addresses to online ones.
//
// Its results depend only on the input and the RedirectTarget and external
// address fixed at construction.
type Translator struct {
	redirect RedirectTarget
	external netip.Addr
	log      logging.LeveledLogger
	metrics  *metrics.Metrics
}

// Option configures a Translator.
type Option func(*Translator)

// WithExternal sets the host's own public address used by TitleAddr.
func WithExternal(ip netip.Addr) Option {
	return func(t *Translator) {
		t.external = ip
	}
}

// WithLogger sets the logger. The default is scoped "xnet".
func WithLogger(l logging.LeveledLogger) Option {
	return func(t *Translator) {
		t.log = l
	}
}

// WithMetrics records the path each translation takes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Translator) {
		t.metrics = m
	}
}

// NewTranslator returns a Translator redirecting unknown peers to redirect.
func NewTranslator(redirect RedirectTarget, opts ...Option) *Translator {
	t := &Translator{redirect: redirect}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logging.NewDefaultLoggerFactory().NewLogger("xnet")
	}
	return t
}

// Redirect returns the target unknown peers are sent to.
func (t *Translator) Redirect() RedirectTarget { return t.redirect }

// External returns the host's public address, possibly invalid.
func (t *Translator) External() netip.Addr { return t.external }

// ToOnline resolves the online form of x.
//
// A peer without a LAN address is a direct connect: its online address
// becomes the redirect target and nothing else in x changes. Any other
// peer already carries its public address, so x is returned as is.
func (t *Translator) ToOnline(x XnAddr) XnAddr {
	t.log.Debugf("translating offline %s online %s", x.Offline, x.Online)
	if Unknown(x.Offline) {
		t.metrics.ObserveTranslation(metrics.PathRedirect)
		x.Online = t.redirect.IP()
		return x
	}
	t.metrics.ObserveTranslation(metrics.PathPassthrough)
	return x
}

// InAddr returns the address a connection to x should target.
func (t *Translator) InAddr(x XnAddr) netip.Addr {
	return t.ToOnline(x).Online
}

// TitleAddr fills the online half of the host's own descriptor: the
// external address, OnlinePort and a counting OnlineKey. The offline half
// reported by the console is kept.
func (t *Translator) TitleAddr(local XnAddr) XnAddr {
	local.Online = t.external
	local.OnlinePort = OnlinePort
	for i := range local.OnlineKey {
		local.OnlineKey[i] = byte(i)
	}
	t.log.Debugf("title address offline %s online %s", local.Offline, local.Online)
	return local
}
