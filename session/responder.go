// Package session answers session queries with a synthetic session hosted
// at the redirect target.
package session

import (
	"context"

	"github.com/aethiopicuschan/liveless/metrics"
	"github.com/aethiopicuschan/liveless/xnet"
	"github.com/pion/logging"
)

// Slot occupancy reported for every synthetic session.
const (
	OpenPublicSlots    = 4
	OpenPrivateSlots   = 4
	FilledPublicSlots  = 1
	FilledPrivateSlots = 1
)

// SearchFunc is the real search call. Its result is never used.
type SearchFunc func(ctx context.Context, q Query) (SearchResult, error)

// Responder answers searches and stubs the other session calls.
type Responder struct {
	redirect xnet.RedirectTarget
	upstream SearchFunc
	log      logging.LeveledLogger
	metrics  *metrics.Metrics
}

// Option configures a Responder.
type Option func(*Responder)

// WithUpstream sets a search call invoked before answering, for the side
// effects it has on the caller's state.
func WithUpstream(f SearchFunc) Option {
	return func(r *Responder) {
		r.upstream = f
	}
}

// WithLogger sets the logger. The default is scoped "session".
func WithLogger(l logging.LeveledLogger) Option {
	return func(r *Responder) {
		r.log = l
	}
}

// WithMetrics records searches and stubbed calls on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Responder) {
		r.metrics = m
	}
}

// NewResponder returns a Responder whose sessions are hosted at redirect.
func NewResponder(redirect xnet.RedirectTarget, opts ...Option) *Responder {
	r := &Responder{redirect: redirect}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.NewDefaultLoggerFactory().NewLogger("session")
	}
	return r
}

// Search returns exactly one session, whatever q asks for.
//
// The descriptor shares q's property and context slices and reports one of
// each.
func (r *Responder) Search(ctx context.Context, q Query) SearchResult {
	for i, c := range q.Contexts {
		r.log.Debugf("context %d: %08x=%08x", i, c.ID, c.Value)
	}
	for i, p := range q.Properties {
		r.log.Debugf("property %d: %08x type %x", i, p.ID, p.Value.Type)
		if p.Value.Type == TypeInt32 {
			r.log.Debugf("    integer data: %08x", uint32(p.Value.Int32))
		}
	}

	if r.upstream != nil {
		if _, err := r.upstream(ctx, q); err != nil {
			r.log.Debugf("upstream search: %v", err)
		}
	}

	r.log.Debug("returning a synthetic session")
	r.metrics.ObserveSearch()
	return SearchResult{Results: []Descriptor{r.descriptor(q)}}
}

func (r *Responder) descriptor(q Query) Descriptor {
	d := Descriptor{
		OpenPublicSlots:    OpenPublicSlots,
		OpenPrivateSlots:   OpenPrivateSlots,
		FilledPublicSlots:  FilledPublicSlots,
		FilledPrivateSlots: FilledPrivateSlots,
		ContextCount:       1,
		PropertyCount:      1,
		Properties:         q.Properties,
		Contexts:           q.Contexts,
	}
	d.Host.Online = r.redirect.IP()
	d.Host.OnlinePort = r.redirect.Address().Port
	for i := range d.KeyExchangeKey {
		d.KeyExchangeKey[i] = byte(i + 1)
	}
	for i := range d.SessionID {
		d.SessionID[i] = byte(i + 1)
	}
	return d
}

// Create reports success without creating anything.
func (r *Responder) Create(context.Context) error {
	r.metrics.ObserveSessionCall("create")
	return nil
}

// JoinRemote reports success without joining anything.
func (r *Responder) JoinRemote(context.Context) error {
	r.metrics.ObserveSessionCall("join_remote")
	return nil
}

// Modify reports success without modifying anything.
func (r *Responder) Modify(context.Context) error {
	r.metrics.ObserveSessionCall("modify")
	return nil
}
